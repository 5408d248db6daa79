package db

import (
	"context"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/fixzit/lease-engine/cmd/utils"
	"github.com/fixzit/lease-engine/db/migrations"
)

const DBConfigOptionFlagName = "database-url"

type DatabaseCommand struct{}

func (c *DatabaseCommand) Command(globalOptions *utils.GlobalOptionsType) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "db",
		Short:            "Database related commands",
		PersistentPreRun: utils.PropagatePersistentPreRun,
		RunE:             utils.CallHelpCommand,
	}

	// 'db migrate up|down'
	// Runs the migrations of the `lease-migrations` folder and tracks them in the `lease_migrations` table.
	cmd.AddCommand(MigrateCmd(cmd.Context(), func(ctx context.Context, dir migrate.MigrationDirection, count int) error {
		return ExecuteMigrations(ctx, globalOptions.DatabaseURL, dir, count, migrations.LeaseMigrationRouter)
	}))

	return cmd
}
