// Package declsync runs a whole sync of an account: login, listing of the
// declarations and the incremental walk over the ones not yet synced.
package declsync

import (
	"context"
	"fmt"
	"time"

	"netentreprise-backend/lib/assert"
	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/formparams"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/scrapers/urssaf"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/mazen160/go-random"
)

// RunContext is everything a run needs, it is owned by a single run.
type RunContext struct {
	// the session of the run, a fresh client per run
	Client *netentreprises.Client
	// the state of the account being synced
	Store syncstate.Store
	Tel   telemetry.API
	// set by Run from the client when nil
	Fetcher Fetcher
	// defaults to time.Now
	Now func() time.Time
}

type Result struct {
	RunID string
	Index []period.ID
	// most recent first
	Bills []declaration.Bill
}

// Run signs in with `creds` and syncs every declaration newer than the stored
// cursor. The bills synced before a failure are returned along with it.
func Run(ctx context.Context, rc RunContext, creds netentreprises.Credentials) (Result, error) {
	assert.NotNil(rc.Client)
	assert.NotNil(rc.Store)
	assert.NotNil(rc.Tel)

	runID, err := random.String(8)
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}
	rc.Tel = telemetry.NewScopedAPI(fmt.Sprintf("declsync[%s]", runID), rc.Tel)
	result := Result{RunID: runID}

	start := time.Now()
	rc.Tel.ReportDebug("authenticating", creds.String())
	serviceURL, err := rc.Client.Authenticate(ctx, creds)
	if err != nil {
		return result, err
	}

	params, err := urssaf.ResolveParameters(ctx, rc.Client, serviceURL, rc.Tel)
	if err != nil {
		return result, err
	}

	index, err := urssaf.BuildIndex(ctx, rc.Client, params, rc.Tel)
	if err != nil {
		return result, err
	}
	result.Index = index

	if rc.Fetcher == nil {
		rc.Fetcher = ClientFetcher{Client: rc.Client, Params: params, Tel: rc.Tel}
	}
	bills, err := NewController().Sync(ctx, rc, index)
	result.Bills = bills

	rc.Tel.ReportDebug("run finished", len(bills), time.Since(start).String())
	return result, err
}

// ClientFetcher fetches declarations through the portal session.
type ClientFetcher struct {
	Client *netentreprises.Client
	Params formparams.FormParams
	Tel    telemetry.API
}

func (f ClientFetcher) Fetch(ctx context.Context, p period.ID) (*goquery.Document, error) {
	return urssaf.FetchDeclaration(ctx, f.Client, f.Params, p, f.Tel)
}
