package main

import (
	"context"
	"log/slog"

	"netentreprise-backend/cmd/netentreprise-cli/commands"
	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "netentreprise-cli")
	if err != nil {
		slog.Debug("telemetry disabled", "err", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
