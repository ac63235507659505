package main

import (
	"context"
	"log/slog"
	"time"

	"netentreprise-backend/lib/restyutil"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"
	"netentreprise-backend/lib/timezone"
	"netentreprise-backend/services/declsync"
)

type Worker struct {
	accounts []declsync.Account
	hours    []int
	runner   declsync.Runner
	now      func() time.Time
}

func NewWorker(cfg Config, backend syncstate.Backend, verbose bool) (Worker, error) {
	tel := telemetry.NewSlogAPI()
	savers, err := cfg.Delivery.Savers(tel)
	if err != nil {
		return Worker{}, err
	}

	runner := declsync.Runner{
		Backend:  backend,
		Saver:    savers,
		Delivery: cfg.Delivery.Options(),
		Client: netentreprises.Options{
			RequestsPerSecond: cfg.RequestsPerSecond,
		},
		Tel: tel,
	}
	if verbose {
		output, err := restyutil.NewFilesystemOutput(".dev/resty/netentreprises")
		if err != nil {
			return Worker{}, err
		}
		runner.Client.Dump = output
	}

	return Worker{
		accounts: cfg.Accounts,
		hours:    cfg.Hours,
		runner:   runner,
		now:      timezone.Now,
	}, nil
}

// syncAll syncs the accounts one after the other, a run never overlaps
// another.
func (w Worker) syncAll(ctx context.Context) {
	start := time.Now()
	results := w.runner.SyncAll(ctx, w.accounts)

	failed := 0
	synced := 0
	for _, res := range results {
		synced += len(res.Result.Bills)
		if res.Err != nil {
			failed++
			slog.ErrorContext(ctx, "sync account", "account", res.Account, "run", res.Result.RunID, "err", res.Err)
		}
	}
	slog.InfoContext(
		ctx, "sync finished",
		"accounts", len(results),
		"failed", failed,
		"declarations", synced,
		"seconds", time.Since(start).Seconds(),
	)
}

// Start blocks until ctx is done.
func (w Worker) Start(ctx context.Context, initialSync bool) {
	if initialSync {
		w.syncAll(ctx)
	}
	for {
		next := timezone.NextAt(w.now(), w.hours)
		slog.InfoContext(ctx, "next sync scheduled", "at", next.Format(time.DateTime))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			w.syncAll(ctx)
		}
	}
}
