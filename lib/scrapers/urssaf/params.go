// Package urssaf walks the micro-social declaration service of the portal.
package urssaf

import (
	"context"
	"fmt"
	"net/url"

	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/telemetry"
)

const (
	report_resolve_parameters = "urssaf.resolve-parameters"
	report_build_index        = "urssaf.build-index"
	report_fetch_declaration  = "urssaf.fetch-declaration"
)

// ResolveParameters follows the service entry page to the declaration menu
// and returns the serialized menu form.
func ResolveParameters(ctx context.Context, client *netentreprises.Client, serviceURL *url.URL, tel telemetry.API) (formparams.FormParams, error) {
	fail := func(err error) (formparams.FormParams, error) {
		tel.ReportBroken(report_resolve_parameters, err)
		return formparams.FormParams{}, portalerr.Wrap(err, portalerr.ErrParameterResolution, portalerr.PhaseParams, "")
	}

	entry, err := client.Get(ctx, serviceURL.String())
	if err != nil {
		return fail(fmt.Errorf("get service entry: %w", err))
	}

	form := entry.Doc.Find(`[name="form"]`).First()
	if form.Length() == 0 {
		return fail(fmt.Errorf("%w: no redirect form on %s", portalerr.ErrParameterResolution, entry.URL))
	}
	action, ok := form.Attr("action")
	if !ok || action == "" {
		return fail(fmt.Errorf("%w: redirect form has no action", portalerr.ErrParameterResolution))
	}
	actionURL, err := entry.Resolve(action)
	if err != nil {
		return fail(fmt.Errorf("%w: redirect form action: %w", portalerr.ErrParameterResolution, err))
	}
	input := form.Find("input").First()
	name := input.AttrOr("name", "")
	if name == "" {
		return fail(fmt.Errorf("%w: redirect form has no named input", portalerr.ErrParameterResolution))
	}

	menu, err := client.PostForm(ctx, actionURL.String(), url.Values{
		name: {input.AttrOr("value", "")},
	}, nil)
	if err != nil {
		return fail(fmt.Errorf("post redirect form: %w", err))
	}

	fields := htmlutil.SerializeForm(menu.Doc.Find(`[name="menuform"]`).First())
	if len(fields) == 0 {
		return fail(fmt.Errorf("%w: empty menu form on %s", portalerr.ErrParameterResolution, menu.URL))
	}

	tel.ReportDebug("resolved declaration parameters", len(fields))
	return formparams.New(fields), nil
}
