package urssaf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const menuPage = `<html><body>
<form name="menuform" method="post">
	<input type="hidden" name="siret" value="12345678900011">
	<input type="hidden" name="codepaye" value="0">
	<input type="hidden" name="numcpt" value="117000001234">
	<input type="button" name="retour" value="Retour">
</form>
</body></html>`

func menuItems(attr string, calls ...string) string {
	var out strings.Builder
	out.WriteString(`<html><body><div class="menu_microsocial">`)
	for _, call := range calls {
		out.WriteString(fmt.Sprintf(`<div class="subitem_menu_microsocial"><a %s="%s">x</a></div>`, attr, call))
	}
	out.WriteString(`</div></body></html>`)
	return out.String()
}

type fakeService struct {
	server   *httptest.Server
	fetched  []string
	noMenu   bool
	failList bool
}

func newFakeService(t testing.TB) *fakeService {
	f := &fakeService{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /priv/service", func(w http.ResponseWriter, r *http.Request) {
		if f.noMenu {
			w.Write([]byte(`<html><body>Service indisponible</body></html>`))
			return
		}
		w.Write([]byte(`<html><body><form name="form" action="../menu" method="post">
			<input type="hidden" name="jeton" value="abc"></form></body></html>`))
	})
	mux.HandleFunc("POST /menu", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("jeton") != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(menuPage))
	})
	mux.HandleFunc("POST /urssaf/action.encours_netmicro", func(w http.ResponseWriter, r *http.Request) {
		if f.failList {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		require.Equal(t, "10", r.FormValue("codepaye"))
		w.Write([]byte(menuItems("href",
			"javascript:consulter('ouverte','1903')",
			"javascript:consulter('close','1902')",
			"javascript:consulter('close','1901')",
		)))
	})
	mux.HandleFunc("POST /urssaf/action.histo_netmicro", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "44", r.FormValue("echeance"))
		if p := r.FormValue("periode"); p != "" {
			f.fetched = append(f.fetched, p)
			w.Write([]byte(fmt.Sprintf(`<html><body><span id="libmtpai">%s</span></body></html>`, p)))
			return
		}
		w.Write([]byte(menuItems("onclick",
			"afficher('1812','x')",
			"afficher()",
			"afficher('1811','x')",
			"afficher('1901','x')",
		)))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) client(t testing.TB) *netentreprises.Client {
	client, err := netentreprises.NewClient(netentreprises.Options{
		LoginURL:          f.server.URL + "/",
		ServiceBaseURL:    f.server.URL + "/priv/",
		DeclarationURL:    f.server.URL + "/urssaf/",
		AllowedDomains:    []string{"127.0.0.1"},
		RequestsPerSecond: 100,
	}, &telemetry.Recorder{})
	require.NoError(t, err)
	return client
}

func (f *fakeService) serviceURL(t testing.TB) *url.URL {
	u, err := url.Parse(f.server.URL + "/priv/service")
	require.NoError(t, err)
	return u
}

func TestResolveParameters(t *testing.T) {
	f := newFakeService(t)
	tel := &telemetry.Recorder{}

	params, err := ResolveParameters(context.Background(), f.client(t), f.serviceURL(t), tel)
	require.NoError(t, err, tel.String())
	require.Equal(t, 3, params.Len())
	siret, _ := params.Get("siret")
	require.Equal(t, "12345678900011", siret)
}

func TestResolveParametersMissingForm(t *testing.T) {
	f := newFakeService(t)
	f.noMenu = true
	tel := &telemetry.Recorder{}

	_, err := ResolveParameters(context.Background(), f.client(t), f.serviceURL(t), tel)
	require.ErrorIs(t, err, portalerr.ErrParameterResolution)
	var portalErr *portalerr.Error
	require.ErrorAs(t, err, &portalErr)
	require.Equal(t, portalerr.PhaseParams, portalErr.Phase)
	require.True(t, tel.Has("broken", report_resolve_parameters))
}

func TestBuildIndex(t *testing.T) {
	f := newFakeService(t)
	client := f.client(t)
	tel := &telemetry.Recorder{}

	params, err := ResolveParameters(context.Background(), client, f.serviceURL(t), tel)
	require.NoError(t, err)

	index, err := BuildIndex(context.Background(), client, params, tel)
	require.NoError(t, err, tel.String())
	require.Equal(t, []period.ID{1902, 1901, 1812, 1811, 1901}, index)
	require.Len(t, tel.Reports("warning"), 1, tel.String())
}

func TestBuildIndexTransportFailure(t *testing.T) {
	f := newFakeService(t)
	f.failList = true
	tel := &telemetry.Recorder{}

	_, err := BuildIndex(context.Background(), f.client(t), formparamsFixture(), tel)
	require.ErrorIs(t, err, portalerr.ErrUnexpectedResponse)
	var portalErr *portalerr.Error
	require.ErrorAs(t, err, &portalErr)
	require.Equal(t, portalerr.PhaseIndex, portalErr.Phase)
}

func TestFetchDeclaration(t *testing.T) {
	f := newFakeService(t)

	doc, err := FetchDeclaration(context.Background(), f.client(t), formparamsFixture(), 1821, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Equal(t, "1821", doc.Find("span#libmtpai").Text())
	require.Equal(t, []string{"1821"}, f.fetched)
}

func TestCallArgument(t *testing.T) {
	cases := []struct {
		attr     string
		position int
		expected string
		ok       bool
	}{
		{"javascript:consulter('ouverte','1903')", 1, "1903", true},
		{"afficher('1812','x')", 0, "1812", true},
		{"afficher( '1812 ','x')", 0, "", false},
		{"afficher('1812')", 1, "", false},
		{"afficher()", 0, "", false},
		{"", 0, "", false},
	}
	for _, c := range cases {
		token, ok := callArgument(c.attr, c.position)
		require.Equal(t, c.ok, ok, c.attr)
		require.Equal(t, c.expected, token, c.attr)
	}
}

func formparamsFixture() formparams.FormParams {
	return formparams.New([]htmlutil.Field{{Name: "siret", Value: "12345678900011"}})
}
