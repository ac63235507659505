package declsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// fakePortal serves the whole path of a run: login, service entry, menu,
// listings and declarations.
type fakePortal struct {
	server  *httptest.Server
	mutex   sync.Mutex
	current []string
	history []string
	fetched []string
}

func newFakePortal(t testing.TB) *fakePortal {
	p := &fakePortal{
		current: []string{"1811", "1810", "1809"},
		history: []string{"1808", "1807"},
	}

	listing := func(attr string, call func(string) string, periods []string) string {
		var out strings.Builder
		out.WriteString(`<div class="menu_microsocial">`)
		for _, period := range periods {
			out.WriteString(fmt.Sprintf(`<div class="subitem_menu_microsocial"><a %s="%s">%s</a></div>`, attr, call(period), period))
		}
		out.WriteString(`</div>`)
		return out.String()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<form id="form__connect" action="/auth/login" method="post">
			<input name="j_siret"><input name="j_nom"><input name="j_prenom"><input type="password" name="j_password">
		</form>`))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("j_password") != "hunter2" {
			http.Redirect(w, r, "/auth/erreur", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/priv/declarations", http.StatusFound)
	})
	mux.HandleFunc("GET /auth/erreur", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>Erreur</p>`))
	})
	mux.HandleFunc("GET /priv/declarations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a id="service-10" href="micro">Micro</a>`))
	})
	mux.HandleFunc("GET /priv/micro", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<form name="form" action="/menu" method="post"><input type="hidden" name="jeton" value="t"></form>`))
	})
	mux.HandleFunc("POST /menu", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<form name="menuform"><input type="hidden" name="siret" value="12345678900011"></form>`))
	})
	mux.HandleFunc("POST /urssaf/action.encours_netmicro", func(w http.ResponseWriter, r *http.Request) {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		w.Write([]byte(listing("href", func(period string) string {
			return fmt.Sprintf("javascript:consulter('x','%s')", period)
		}, p.current)))
	})
	mux.HandleFunc("POST /urssaf/action.histo_netmicro", func(w http.ResponseWriter, r *http.Request) {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		if period := r.FormValue("periode"); period != "" {
			p.fetched = append(p.fetched, period)
			w.Write([]byte(fixtureHTML))
			return
		}
		w.Write([]byte(listing("onclick", func(period string) string {
			return fmt.Sprintf("afficher('%s','x')", period)
		}, p.history)))
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) runContext(t testing.TB, store syncstate.Store) (RunContext, *telemetry.Recorder) {
	tel := &telemetry.Recorder{}
	client, err := netentreprises.NewClient(netentreprises.Options{
		LoginURL:          p.server.URL + "/",
		ServiceBaseURL:    p.server.URL + "/priv/",
		DeclarationURL:    p.server.URL + "/urssaf/",
		AllowedDomains:    []string{"127.0.0.1"},
		RequestsPerSecond: 100,
	}, tel)
	require.NoError(t, err)
	return RunContext{Client: client, Store: store, Tel: tel}, tel
}

var testCredentials = netentreprises.Credentials{
	Siret:     "12345678900011",
	LastName:  "Martin",
	FirstName: "Marie",
	Password:  "hunter2",
}

func TestRun(t *testing.T) {
	portal := newFakePortal(t)
	store := syncstate.NewMemoryBackend().ForAccount(testCredentials.Siret)

	rc, tel := portal.runContext(t, store)
	result, err := Run(context.Background(), rc, testCredentials)
	require.NoError(t, err, tel.String())

	require.Len(t, result.RunID, 8)
	require.Equal(t, []period.ID{1810, 1809, 1808, 1807}, result.Index)
	require.Equal(t, []period.ID{1810, 1809, 1808, 1807}, periodsOf(result.Bills))
	require.Equal(t, []string{"1807", "1808", "1809", "1810"}, portal.fetched)

	// a new declaration shows up, the open one moves to the closed ones
	portal.current = []string{"1812", "1811", "1810", "1809"}
	portal.fetched = nil

	rc, tel = portal.runContext(t, store)
	result, err = Run(context.Background(), rc, testCredentials)
	require.NoError(t, err, tel.String())
	require.Equal(t, []period.ID{1811}, periodsOf(result.Bills))
	require.Equal(t, []string{"1811"}, portal.fetched)

	rc, _ = portal.runContext(t, store)
	result, err = Run(context.Background(), rc, testCredentials)
	require.NoError(t, err)
	require.Empty(t, result.Bills)
}

func TestRunRejectedCredentials(t *testing.T) {
	portal := newFakePortal(t)
	store := syncstate.NewMemoryBackend().ForAccount(testCredentials.Siret)

	creds := testCredentials
	creds.Password = "wrong"
	rc, _ := portal.runContext(t, store)
	result, err := Run(context.Background(), rc, creds)
	require.ErrorIs(t, err, portalerr.ErrAuthentication)
	require.Empty(t, result.Index)
	require.Empty(t, portal.fetched)
}
