package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db/migrations"
)

// Migrate runs up to count migrations of the given router in the given direction. A count of 0 runs all of them.
func Migrate(ctx context.Context, dbURL string, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(dbURL)
	if err != nil {
		return 0, fmt.Errorf("opening database connection pool: %w", err)
	}
	defer dbConnectionPool.Close()

	sqlDB, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}

	log.Ctx(ctx).Debugf("running migrations tracked in %s", migrationRouter.TableName)
	n, err := migrationRouter.MigrationSet().ExecMax(sqlDB, dbConnectionPool.DriverName(), migrationRouter.Source(), dir, count)
	if err != nil {
		return n, fmt.Errorf("executing migrations tracked in %s: %w", migrationRouter.TableName, err)
	}
	return n, nil
}
