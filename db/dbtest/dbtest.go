package dbtest

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/db/dbtest"

	"github.com/fixzit/lease-engine/db/migrations"
)

// OpenWithoutMigrations creates a fresh, empty Postgres test database.
func OpenWithoutMigrations(t *testing.T) *dbtest.DB {
	t.Helper()
	return dbtest.Postgres(t)
}

// Open creates a fresh Postgres test database with all lease migrations applied.
func Open(t *testing.T) *dbtest.DB {
	t.Helper()
	db := OpenWithoutMigrations(t)

	conn := db.Open()
	defer conn.Close()

	router := migrations.LeaseMigrationRouter
	if _, err := router.MigrationSet().ExecMax(conn.DB, "postgres", router.Source(), migrate.Up, 0); err != nil {
		t.Fatalf("applying %s: %v", router.TableName, err)
	}

	return db
}
