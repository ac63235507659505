package testutil

import (
	"context"
	"database/sql"
	"testing"

	devenv "netentreprise-backend/dev/env"
	"netentreprise-backend/lib/telemetry"
	"netentreprise-backend/pkg/migrations"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB  *sql.DB
	Tel *telemetry.Recorder
}

// SetupService opens (and migrates) a sqlite database for a test, together with a
// telemetry recorder whose reports are logged when the test fails.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	tel := &telemetry.Recorder{}
	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("telemetry of %s:\n%s", params.Name, tel.String())
		}
	})

	if params.DbSchema == "" {
		return ServiceResult{Tel: tel}
	}

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.DbPath)
		if err != nil {
			t.Fatal(err)
		}
	}
	db, err := migrations.OpenAndMigrateDB(context.Background(), params.DbSchema, dbpath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return ServiceResult{DB: db, Tel: tel}
}
