package utils

import (
	"fmt"
	"go/types"
	"time"

	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/scheduler"
	"github.com/fixzit/lease-engine/internal/scheduler/jobs"
	"github.com/fixzit/lease-engine/internal/services"
)

// DBPoolOptions contains tunables for the PostgreSQL connection pool.
type DBPoolOptions struct {
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxIdleTimeSeconds int
	DBConnMaxLifetimeSeconds int
}

// DBPoolConfig converts the options into the pool config used to open a connection pool.
func (o DBPoolOptions) DBPoolConfig() db.DBPoolConfig {
	return db.DBPoolConfig{
		MaxOpenConns:    o.DBMaxOpenConns,
		MaxIdleConns:    o.DBMaxIdleConns,
		ConnMaxIdleTime: time.Duration(o.DBConnMaxIdleTimeSeconds) * time.Second,
		ConnMaxLifetime: time.Duration(o.DBConnMaxLifetimeSeconds) * time.Second,
	}
}

// DBPoolConfigOptions returns config options for tuning the DB connection pool.
func DBPoolConfigOptions(opts *DBPoolOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "db-max-open-conns",
			Usage:       "Maximum number of open DB connections per pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxOpenConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxOpenConns,
			Required:    false,
		},
		{
			Name:        "db-max-idle-conns",
			Usage:       "Maximum number of idle DB connections retained per pool",
			OptType:     types.Int,
			ConfigKey:   &opts.DBMaxIdleConns,
			FlagDefault: db.DefaultDBPoolConfig.MaxIdleConns,
			Required:    false,
		},
		{
			Name:        "db-conn-max-idle-time-seconds",
			Usage:       "Maximum idle time in seconds before a connection is closed",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxIdleTimeSeconds,
			FlagDefault: db.DefaultConnMaxIdleTimeSeconds,
			Required:    false,
		},
		{
			Name:        "db-conn-max-lifetime-seconds",
			Usage:       "Maximum lifetime in seconds for a single connection",
			OptType:     types.Int,
			ConfigKey:   &opts.DBConnMaxLifetimeSeconds,
			FlagDefault: db.DefaultConnMaxLifetimeSeconds,
			Required:    false,
		},
	}
}

type OrganizationRoutingOptions struct {
	All            bool
	OrganizationID string
}

func (o *OrganizationRoutingOptions) ValidateFlags() error {
	if !o.All && o.OrganizationID == "" {
		return fmt.Errorf(
			"invalid config. Please specify --all to run the command for all organizations " +
				"or specify --organization-id to run it for a specific organization",
		)
	}
	return nil
}

// OrganizationRoutingConfigOptions returns the config options for routing commands that apply to all organizations or
// a specific one.
func OrganizationRoutingConfigOptions(opts *OrganizationRoutingOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "all",
			Usage:       "Apply the command to all organizations. Either --organization-id or --all must be set, but the --all option will be ignored if --organization-id is set.",
			OptType:     types.Bool,
			FlagDefault: false,
			ConfigKey:   &opts.All,
			Required:    false,
		},
		SingleOrganizationConfigOption(&opts.OrganizationID),
	}
}

func SingleOrganizationConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "organization-id",
		Usage:     "The organization ID where the command will be applied.",
		OptType:   types.String,
		ConfigKey: targetPointer,
		Required:  false,
	}
}

func CrashTrackerTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "crash-tracker-type",
		Usage:          `Crash tracker type. Options: "SENTRY", "DRY_RUN"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionCrashTrackerType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(crashtracker.CrashTrackerTypeDryRun),
		Required:       true,
	}
}

func ComplianceRegistrationTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "compliance-registration-type",
		Usage:          `Where activated and renewed leases are registered for compliance. Options: "DRY_RUN", "NONE"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionComplianceRegistrationType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(services.ComplianceRegistrationTypeDryRun),
		Required:       true,
	}
}

func SchedulerConfigOptions(opts *scheduler.SchedulerOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "scheduler-expiry-notification-job-seconds",
			Usage:       fmt.Sprintf("The interval in seconds for the job that enqueues lease expiry reminders. Must be greater than %d seconds.", jobs.DefaultMinimumJobIntervalSeconds),
			OptType:     types.Int,
			ConfigKey:   &opts.ExpiryNotificationJobIntervalSeconds,
			FlagDefault: 3600,
			Required:    false,
		},
		{
			Name:        "scheduler-auto-renewal-job-seconds",
			Usage:       fmt.Sprintf("The interval in seconds for the job that renews auto-renew leases nearing their end date. Must be greater than %d seconds.", jobs.DefaultMinimumJobIntervalSeconds),
			OptType:     types.Int,
			ConfigKey:   &opts.AutoRenewalJobIntervalSeconds,
			FlagDefault: 3600,
			Required:    false,
		},
	}
}
