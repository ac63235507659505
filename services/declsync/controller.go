package declsync

import (
	"context"
	"fmt"
	"slices"
	"time"

	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/statement"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/qmuntal/stateless"
)

const (
	report_sync           = "controller.sync"
	report_sync_duplicate = "controller.sync-duplicate"
	report_sync_failed    = "controller.sync-failed"
	report_sync_mismatch  = "controller.period-mismatch"
)

const (
	StateIdle       = "Idle"
	StateCatchingUp = "CatchingUp"
)

const (
	triggerStart      = "start"
	triggerPeriodDone = "period-done"
	triggerCaughtUp   = "caught-up"
	triggerFailed     = "failed"
)

// Fetcher returns the consultation page of a declaration.
type Fetcher interface {
	Fetch(ctx context.Context, p period.ID) (*goquery.Document, error)
}

// Controller walks a declaration index from the oldest period not yet synced
// to the most recent one, one period at a time.
type Controller struct {
	machine *stateless.StateMachine
}

func NewController() *Controller {
	machine := stateless.NewStateMachine(StateIdle)
	machine.Configure(StateIdle).
		Permit(triggerStart, StateCatchingUp)
	machine.Configure(StateCatchingUp).
		PermitReentry(triggerPeriodDone).
		Permit(triggerCaughtUp, StateIdle).
		Permit(triggerFailed, StateIdle)
	return &Controller{machine: machine}
}

func (c *Controller) State() string {
	return c.machine.MustState().(string)
}

// Plan returns the positions of `index` to sync, in the order they are synced.
// Without a cursor, or with one that is not in the index, every position is
// planned from the last (oldest) to the first. A period listed more than once
// is only planned at its most recent position.
func Plan(index []period.ID, cursor *period.ID) []int {
	positions, _ := plan(index, cursor)
	return positions
}

func plan(index []period.ID, cursor *period.ID) (positions []int, duplicates int) {
	start := len(index)
	if cursor != nil {
		if i := slices.Index(index, *cursor); i >= 0 {
			start = i
		}
	}
	positions = make([]int, 0, start)
	for i := start - 1; i >= 0; i-- {
		if slices.Index(index[:i], index[i]) >= 0 {
			duplicates++
			continue
		}
		positions = append(positions, i)
	}
	return positions, duplicates
}

// Sync syncs the periods of `index` newer than the stored cursor. The bills
// are returned most recent first. On failure it returns the bills of the
// periods completed before it together with the error, the cursor then points
// to the last completed period.
func (c *Controller) Sync(ctx context.Context, rc RunContext, index []period.ID) ([]declaration.Bill, error) {
	tel := rc.Tel
	state, err := rc.Store.Get(ctx)
	if err != nil {
		return nil, portalerr.New(nil, portalerr.PhasePersist, "", fmt.Errorf("read sync state: %w", err))
	}

	positions, duplicates := plan(index, state.LastSyncedPeriod)
	if duplicates > 0 {
		tel.ReportWarning(report_sync_duplicate, duplicates)
	}
	tel.ReportCount(report_sync, int64(len(positions)))
	if len(positions) == 0 {
		return nil, nil
	}

	err = c.machine.FireCtx(ctx, triggerStart)
	if err != nil {
		return nil, err
	}

	var bills []declaration.Bill
	for _, position := range positions {
		p := index[position]
		bill, err := c.syncPeriod(ctx, rc, p)
		if err != nil {
			tel.ReportWarning(report_sync_failed, err, len(bills))
			fireErr := c.machine.FireCtx(ctx, triggerFailed)
			if fireErr != nil {
				tel.ReportBroken(report_sync, fireErr)
			}
			return bills, err
		}

		bills = append([]declaration.Bill{bill}, bills...)
		err = c.machine.FireCtx(ctx, triggerPeriodDone)
		if err != nil {
			return bills, err
		}
	}

	err = c.machine.FireCtx(ctx, triggerCaughtUp)
	if err != nil {
		return bills, err
	}
	return bills, nil
}

func (c *Controller) syncPeriod(ctx context.Context, rc RunContext, p period.ID) (declaration.Bill, error) {
	if err := ctx.Err(); err != nil {
		return declaration.Bill{}, portalerr.New(portalerr.ErrTransport, portalerr.PhaseFetch, p.String(), err)
	}

	doc, err := rc.Fetcher.Fetch(ctx, p)
	if err != nil {
		return declaration.Bill{}, portalerr.Wrap(err, portalerr.ErrTransport, portalerr.PhaseFetch, p.String())
	}

	bill, err := declaration.Extract(doc, p)
	if err != nil {
		return declaration.Bill{}, portalerr.Wrap(err, portalerr.ErrExtraction, portalerr.PhaseExtract, p.String())
	}
	checkLabeledMonth(rc.Tel, doc, p)

	rendered, err := statement.Render(doc, p)
	if err != nil {
		return declaration.Bill{}, portalerr.Wrap(err, portalerr.ErrExtraction, portalerr.PhaseRender, p.String())
	}
	bill.Content = rendered.PDF

	err = rc.Store.Set(ctx, syncstate.State{
		LastSyncedPeriod: syncstate.Cursor(p),
		UpdatedAt:        rc.now(),
	}, syncstate.SetOptions{Merge: true})
	if err != nil {
		return declaration.Bill{}, portalerr.New(nil, portalerr.PhasePersist, p.String(), err)
	}

	rc.Tel.ReportDebug("synced period", p.String(), rendered.Pages)
	return bill, nil
}

// checkLabeledMonth compares the decoded period with the month the page
// announces. A mismatch means two ids may share a filename.
func checkLabeledMonth(tel telemetry.API, doc *goquery.Document, p period.ID) {
	year, month, ok := declaration.LabeledMonth(doc)
	if !ok {
		return
	}
	decoded, err := period.Decode(p)
	if err != nil {
		return
	}
	if decoded.Year != year || decoded.Month != month {
		tel.ReportWarning(report_sync_mismatch, p.String(), fmt.Sprintf("%04d-%02d", year, month))
	}
}

func (rc RunContext) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}
