package urssaf

import (
	"context"
	"fmt"

	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

// FetchDeclaration returns the consultation page of the declaration of period `p`.
func FetchDeclaration(ctx context.Context, client *netentreprises.Client, params formparams.FormParams, p period.ID, tel telemetry.API) (*goquery.Document, error) {
	page, err := client.PostForm(ctx, client.Action(actionHistory), params.ForPeriod(p).Values(), nil)
	if err != nil {
		tel.ReportBroken(report_fetch_declaration, fmt.Errorf("period %s: %w", p, err))
		return nil, portalerr.Wrap(err, portalerr.ErrTransport, portalerr.PhaseFetch, p.String())
	}
	return page.Doc, nil
}
