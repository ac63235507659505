package netentreprises

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/portalerr"
)

const report_client_authenticate = "client.authenticate"

type Credentials struct {
	Siret     string
	LastName  string
	FirstName string
	Password  string
}

// String never prints the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s (%s %s)", c.Siret, c.FirstName, c.LastName)
}

const (
	loginFormSelector   = "form#form__connect"
	serviceLinkSelector = "#service-10"

	loginErrorPath   = "/auth/erreur"
	loginSuccessPath = "/priv/declarations"
)

// Authenticate signs into the portal and returns the entry url of the
// micro-social declaration service.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*url.URL, error) {
	fail := func(kind error, err error) error {
		c.tel.ReportBroken(report_client_authenticate, err)
		return portalerr.Wrap(err, kind, portalerr.PhaseLogin, "")
	}

	loginPage, err := c.Get(ctx, c.LoginURL.String())
	if err != nil {
		return nil, fail(portalerr.ErrTransport, fmt.Errorf("get login page: %w", err))
	}
	form := loginPage.Doc.Find(loginFormSelector).First()
	if form.Length() == 0 {
		return nil, fail(
			portalerr.ErrUnexpectedResponse,
			fmt.Errorf("could not find %s on %s", loginFormSelector, loginPage.URL),
		)
	}
	action, err := loginPage.Resolve(form.AttrOr("action", ""))
	if err != nil {
		return nil, fail(portalerr.ErrUnexpectedResponse, fmt.Errorf("login form action: %w", err))
	}

	params := formparams.New(htmlutil.SerializeForm(form)).
		With("j_siret", creds.Siret).
		With("j_nom", creds.LastName).
		With("j_prenom", creds.FirstName).
		With("j_password", creds.Password)

	landing, err := c.PostForm(ctx, action.String(), params.Values(), map[string]string{
		"Referer":                   loginPage.URL.String(),
		"Upgrade-Insecure-Requests": "1",
	})
	if err != nil {
		return nil, fail(portalerr.ErrTransport, fmt.Errorf("post login form: %w", err))
	}

	switch {
	case strings.HasPrefix(landing.URL.Path, loginErrorPath):
		c.tel.ReportWarning(report_client_authenticate, "credentials rejected", creds.Siret)
		return nil, portalerr.New(portalerr.ErrAuthentication, portalerr.PhaseLogin, "", nil)
	case strings.HasPrefix(landing.URL.Path, loginSuccessPath):
	default:
		return nil, fail(
			portalerr.ErrUnexpectedResponse,
			fmt.Errorf("login landed on %s", landing.URL.Path),
		)
	}

	href, ok := landing.Doc.Find(serviceLinkSelector).Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, fail(
			portalerr.ErrUnexpectedResponse,
			fmt.Errorf("could not find %s on the declarations page", serviceLinkSelector),
		)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fail(portalerr.ErrUnexpectedResponse, fmt.Errorf("service link: %w", err))
	}
	serviceURL := c.ServiceBaseURL.ResolveReference(ref)

	c.tel.ReportDebug("authenticated", creds.Siret, serviceURL.String())
	return serviceURL, nil
}
