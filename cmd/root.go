package cmd

import (
	"go/types"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdDB "github.com/fixzit/lease-engine/cmd/db"
	cmdUtils "github.com/fixzit/lease-engine/cmd/utils"
	"github.com/fixzit/lease-engine/internal/monitor"
)

// globalOptions is a variable that holds the global CLI options that can be
// applied to any command or subcommand.
var globalOptions cmdUtils.GlobalOptionsType

func rootCmd() *cobra.Command {
	configOpts := config.ConfigOptions{
		{
			Name:           "log-level",
			Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
			OptType:        types.String,
			FlagDefault:    "TRACE",
			ConfigKey:      &globalOptions.LogLevel,
			CustomSetValue: cmdUtils.SetConfigOptionLogLevel,
			Required:       true,
		},
		{
			Name:      "sentry-dsn",
			Usage:     "The DSN (client key) of the Sentry project. If not provided, Sentry will not be used.",
			OptType:   types.String,
			ConfigKey: &globalOptions.SentryDSN,
			Required:  false,
		},
		{
			Name:        "environment",
			Usage:       `The environment where the application is running. Example: "development", "staging", "production".`,
			OptType:     types.String,
			FlagDefault: "development",
			ConfigKey:   &globalOptions.Environment,
			Required:    true,
		},
		{
			Name:        cmdDB.DBConfigOptionFlagName,
			Usage:       `Postgres DB URL`,
			OptType:     types.String,
			FlagDefault: "postgres://localhost:5432/lease_engine?sslmode=disable",
			ConfigKey:   &globalOptions.DatabaseURL,
			Required:    true,
		},
	}

	rootCmd := &cobra.Command{
		Use:     "lease-engine",
		Short:   "Lease lifecycle engine",
		Long:    "The lease engine creates, activates, renews and terminates property leases, and runs the expiry reminder and auto-renewal jobs.",
		Version: globalOptions.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}
			log.Info("Version: ", globalOptions.Version)
			log.Info("GitCommit: ", globalOptions.GitCommit)
		},
		RunE: cmdUtils.CallHelpCommand,
	}

	// Read by cmdUtils.LoadEnvFile before the commands run, registered so cobra accepts it.
	rootCmd.PersistentFlags().String(cmdUtils.EnvFileFlagName, "", "Path to a .env file with the config options. Defaults to the ENV_FILE env var, then .env in the working directory.")

	err := configOpts.Init(rootCmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return rootCmd
}

// SetupCLI sets up the CLI and returns the root command with the subcommands
// attached.
func SetupCLI(version, gitCommit string) *cobra.Command {
	if err := cmdUtils.LoadEnvFile(os.Args); err != nil {
		log.Fatalf("Error loading env file: %s", err.Error())
	}

	globalOptions.Version = version
	globalOptions.GitCommit = gitCommit
	rootCmd := rootCmd()

	// Add subcommands
	rootCmd.AddCommand((&ServeCommand{}).Command(&ServerService{}, &monitor.MonitorService{}))
	rootCmd.AddCommand((&cmdDB.DatabaseCommand{}).Command(&globalOptions))
	rootCmd.AddCommand((&LeasesCommand{}).Command(&LeasesCommandService{}))

	return rootCmd
}
