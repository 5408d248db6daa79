package db

import (
	"context"
	"fmt"
	"strconv"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/cmd/utils"
	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/db/migrations"
)

type executeMigrationsFunc func(ctx context.Context, dir migrate.MigrationDirection, count int) error

// MigrateCmd returns the `migrate up|down` commands, running executeMigrationsFn with the direction and count.
func MigrateCmd(ctx context.Context, executeMigrationsFn executeMigrationsFunc) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:              "migrate",
		Short:            "Schema migration helpers",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	// `up` applies all pending migrations when [count] is omitted, `down` always needs it.
	migrateCmd.AddCommand(migrateDirectionCmd(ctx, migrate.Up, cobra.MaximumNArgs(1), executeMigrationsFn))
	migrateCmd.AddCommand(migrateDirectionCmd(ctx, migrate.Down, cobra.ExactArgs(1), executeMigrationsFn))
	return migrateCmd
}

func migrateDirectionCmd(ctx context.Context, dir migrate.MigrationDirection, args cobra.PositionalArgs, executeMigrationsFn executeMigrationsFunc) *cobra.Command {
	dirStr := migrationDirectionStr(dir)
	use := dirStr + " [count]"

	return &cobra.Command{
		Use:              use,
		Short:            fmt.Sprintf("Migrates database %s [count] migrations", dirStr),
		Args:             args,
		PersistentPreRun: utils.PropagatePersistentPreRun,
		Run: func(cmd *cobra.Command, args []string) {
			var count int
			if len(args) > 0 {
				var err error
				count, err = strconv.Atoi(args[0])
				if err != nil {
					log.Ctx(ctx).Fatalf("Invalid [count] argument: %s", args[0])
				}
			}

			if err := executeMigrationsFn(cmd.Context(), dir, count); err != nil {
				log.Ctx(ctx).Fatalf("Error executing migrate %s: %v", dirStr, err)
			}
		},
	}
}

// ExecuteMigrations applies the migrations of the router to the database, in the given direction. A zero count applies
// all of them.
func ExecuteMigrations(ctx context.Context, dbURL string, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) error {
	numMigrationsRun, err := db.Migrate(ctx, dbURL, dir, count, migrationRouter)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	if numMigrationsRun == 0 {
		log.Ctx(ctx).Info("No migrations applied.")
	} else {
		log.Ctx(ctx).Infof("Successfully applied %d migrations %s.", numMigrationsRun, migrationDirectionStr(dir))
	}
	return nil
}

func migrationDirectionStr(dir migrate.MigrationDirection) string {
	if dir == migrate.Up {
		return "up"
	}
	return "down"
}
