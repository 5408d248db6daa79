package migrations

import (
	"net/http"

	migrate "github.com/rubenv/sql-migrate"

	leasemigrations "github.com/fixzit/lease-engine/db/migrations/lease-migrations"
)

// MigrationRouter pairs a set of embedded migration files with the table that tracks which of them were applied.
type MigrationRouter struct {
	TableName string
	FS        http.FileSystem
}

var LeaseMigrationRouter = MigrationRouter{TableName: "lease_migrations", FS: http.FS(leasemigrations.FS)}

func (r MigrationRouter) MigrationSet() *migrate.MigrationSet {
	return &migrate.MigrationSet{TableName: r.TableName}
}

func (r MigrationRouter) Source() migrate.MigrationSource {
	return migrate.HttpFileSystemMigrationSource{FileSystem: r.FS}
}
