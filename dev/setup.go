package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "netentreprise-backend/dev/env"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/pkg/migrations"
)

func createDb(filename, schema string) error {
	dbpath, err := devenv.ResolvePath(filepath.Join("<dev_state>", filename))
	if err != nil {
		return err
	}

	_, err = os.Stat(dbpath)
	if err == nil {
		fmt.Println("database already created at", dbpath)
		return nil
	}

	fmt.Println("creating database at", dbpath)
	db, err := migrations.OpenAndMigrateDB(context.Background(), schema, dbpath)
	if err != nil {
		return err
	}
	return db.Close()
}

func CreateEmptyServiceDBs() error {
	return createDb("state.db", syncstate.Schema)
}

// CreatePortalTestConfig writes an empty credentials file for the tests that
// talk to the real portal.
func CreatePortalTestConfig() error {
	path, err := devenv.GetStateFilePath("netentreprises.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("portal credentials already present at", path)
		return nil
	}

	contents, err := json.MarshalIndent(devenv.PortalTestConfig{}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path+".template", contents, 0600)
}

func PrintConfigLocations() {
	slog.Info("tests against the real portal need dev/.state/netentreprises.json5, fill in dev/.state/netentreprises.json5.template and rename it.")
}
