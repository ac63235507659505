package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "netentreprised")
	if errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "no telemetry.json5 found, traces and metrics are not exported")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}
