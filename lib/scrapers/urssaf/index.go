package urssaf

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	actionCurrent = "action.encours_netmicro"
	actionHistory = "action.histo_netmicro"

	menuItemSelector = ".menu_microsocial .subitem_menu_microsocial"
)

type listing struct {
	action string
	// the attribute of the link that holds the javascript call
	attr string
	// the position of the period among the arguments of that call
	position int
}

var (
	currentListing = listing{action: actionCurrent, attr: "href", position: 1}
	historyListing = listing{action: actionHistory, attr: "onclick", position: 0}
)

// BuildIndex lists every declaration period of the account, most recent
// first: the current declarations (minus the one still open) then the
// history. Duplicates are kept.
func BuildIndex(ctx context.Context, client *netentreprises.Client, params formparams.FormParams, tel telemetry.API) ([]period.ID, error) {
	values := params.WithBusinessDefaults().Values()

	current, err := fetchListing(ctx, client, currentListing, values, tel)
	if err != nil {
		return nil, err
	}
	history, err := fetchListing(ctx, client, historyListing, values, tel)
	if err != nil {
		return nil, err
	}

	if len(current) > 0 {
		current = current[1:]
	}

	index := make([]period.ID, 0, len(current)+len(history))
	for _, token := range append(current, history...) {
		if token == "" {
			continue
		}
		p, err := period.Parse(token)
		if err != nil {
			tel.ReportWarning(report_build_index, fmt.Errorf("skipping entry: %w", err))
			continue
		}
		index = append(index, p)
	}

	tel.ReportCount(report_build_index, int64(len(index)))
	return index, nil
}

func fetchListing(ctx context.Context, client *netentreprises.Client, l listing, values url.Values, tel telemetry.API) ([]string, error) {
	page, err := client.PostForm(ctx, client.Action(l.action), values, nil)
	if err != nil {
		tel.ReportBroken(report_build_index, fmt.Errorf("list %s: %w", l.action, err))
		return nil, portalerr.Wrap(err, portalerr.ErrTransport, portalerr.PhaseIndex, "")
	}

	var tokens []string
	page.Doc.Find(menuItemSelector).Each(func(_ int, item *goquery.Selection) {
		attr := item.Find("a").First().AttrOr(l.attr, "")
		token, ok := callArgument(attr, l.position)
		if !ok {
			tel.ReportWarning(report_build_index, "unparseable menu entry", l.action, attr)
			// keeps the position so the first current entry is still dropped
			tokens = append(tokens, "")
			return
		}
		tokens = append(tokens, token)
	})
	return tokens, nil
}

// callArgument returns the leading digits of the argument at `position` of a
// javascript call like "consulter('X','1809')".
func callArgument(attr string, position int) (string, bool) {
	_, args, found := strings.Cut(attr, "('")
	if !found {
		return "", false
	}
	parts := strings.Split(args, "','")
	if position >= len(parts) {
		return "", false
	}
	arg := strings.TrimSpace(parts[position])
	end := 0
	for end < len(arg) && arg[end] >= '0' && arg[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}
	return arg[:end], true
}
