package main

import (
	"flag"

	"netentreprise-backend/lib/configutil"
	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/syncstate"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialSync := flag.Bool("sync", false, "Trigger a sync immediately on run.")
	configPath := flag.String("config", "config.json5", "The config file to read.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	err = cfg.Validate()
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}

	backend, err := syncstate.Open(ctx, cfg.State)
	if err != nil {
		serviceutil.Fatal("open state", err)
	}
	defer backend.Close()

	worker, err := NewWorker(cfg, backend, *verbose)
	if err != nil {
		serviceutil.Fatal("init worker", err)
	}
	worker.Start(ctx, *initialSync)
}
