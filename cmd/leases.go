package cmd

import (
	"context"
	"fmt"
	"go/types"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"
	"golang.org/x/sync/errgroup"

	cmdUtils "github.com/fixzit/lease-engine/cmd/utils"
	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/services"
)

const defaultLeaseJobMaxConcurrency = 4

type LeasesCommand struct{}

// LeasesCommandServiceInterface runs the lease jobs once over a set of organizations.
type LeasesCommandServiceInterface interface {
	ProcessExpiryNotifications(ctx context.Context, service services.LeaseExpiryNotificationServiceInterface, organizationIDs []string, thresholds []int, maxConcurrency int) ([]*services.LeaseExpiryNotificationReport, error)
	ProcessAutoRenewals(ctx context.Context, service services.LeaseAutoRenewalServiceInterface, organizationIDs []string, withinDays int, rentIncreasePercent *decimal.Decimal, maxConcurrency int) ([]*services.LeaseAutoRenewalReport, error)
}

type LeasesCommandService struct{}

var _ LeasesCommandServiceInterface = (*LeasesCommandService)(nil)

func (s *LeasesCommandService) ProcessExpiryNotifications(ctx context.Context, service services.LeaseExpiryNotificationServiceInterface, organizationIDs []string, thresholds []int, maxConcurrency int) ([]*services.LeaseExpiryNotificationReport, error) {
	return forEachOrganization(ctx, organizationIDs, maxConcurrency, func(ctx context.Context, organizationID string) (*services.LeaseExpiryNotificationReport, error) {
		return service.ProcessLeaseExpiryNotifications(ctx, services.ProcessLeaseExpiryNotificationsRequest{
			OrganizationID: organizationID,
			Thresholds:     thresholds,
		})
	})
}

func (s *LeasesCommandService) ProcessAutoRenewals(ctx context.Context, service services.LeaseAutoRenewalServiceInterface, organizationIDs []string, withinDays int, rentIncreasePercent *decimal.Decimal, maxConcurrency int) ([]*services.LeaseAutoRenewalReport, error) {
	return forEachOrganization(ctx, organizationIDs, maxConcurrency, func(ctx context.Context, organizationID string) (*services.LeaseAutoRenewalReport, error) {
		return service.ProcessAutoRenewals(ctx, services.ProcessAutoRenewalsRequest{
			OrganizationID:      organizationID,
			WithinDays:          withinDays,
			RentIncreasePercent: rentIncreasePercent,
		})
	})
}

// forEachOrganization runs fn for every organization, at most maxConcurrency at a time. A failing organization does
// not stop the others, and the first failure is returned once all of them finished.
func forEachOrganization[T any](ctx context.Context, organizationIDs []string, maxConcurrency int, fn func(ctx context.Context, organizationID string) (*T, error)) ([]*T, error) {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	results := make([]*T, len(organizationIDs))
	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	for i, organizationID := range organizationIDs {
		g.Go(func() error {
			orgCtx := appcontext.SetOrganizationIDInContext(ctx, organizationID)
			result, err := fn(orgCtx, organizationID)
			if err != nil {
				log.Ctx(orgCtx).Errorf("processing organization %s: %v", organizationID, err)
				return fmt.Errorf("processing organization %s: %w", organizationID, err)
			}
			results[i] = result
			return nil
		})
	}
	err := g.Wait()

	processed := make([]*T, 0, len(results))
	for _, result := range results {
		if result != nil {
			processed = append(processed, result)
		}
	}
	return processed, err
}

func (c *LeasesCommand) Command(leasesService LeasesCommandServiceInterface) *cobra.Command {
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	configOpts := config.ConfigOptions{
		cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType),
	}

	cmd := &cobra.Command{
		Use:   "leases",
		Short: "Lease lifecycle commands and one-off runs of the lease jobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)
			configOpts.Require()
			if err := configOpts.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %v", err)
			}
			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)
		},
		RunE: cmdUtils.CallHelpCommand,
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	cmd.AddCommand(c.expiryNotificationsCmd(leasesService))
	cmd.AddCommand(c.autoRenewalsCmd(leasesService, &crashTrackerOptions))
	cmd.AddCommand(c.activateCmd(&crashTrackerOptions))
	cmd.AddCommand(c.renewCmd(&crashTrackerOptions))
	cmd.AddCommand(c.terminateCmd(&crashTrackerOptions))

	return cmd
}

func maxConcurrencyConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "max-concurrency",
		Usage:       "How many organizations are processed at the same time.",
		OptType:     types.Int,
		ConfigKey:   targetPointer,
		FlagDefault: defaultLeaseJobMaxConcurrency,
		Required:    false,
	}
}

// subcommandPreRun returns a PersistentPreRun that loads the parent's options before its own.
func subcommandPreRun(configOpts config.ConfigOptions) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		cmdUtils.PropagatePersistentPreRun(cmd, args)
		configOpts.Require()
		if err := configOpts.SetValues(); err != nil {
			log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %v", err)
		}
	}
}

func (c *LeasesCommand) expiryNotificationsCmd(leasesService LeasesCommandServiceInterface) *cobra.Command {
	routingOpts := cmdUtils.OrganizationRoutingOptions{}
	var thresholds []int
	var maxConcurrency int

	var configOpts config.ConfigOptions = cmdUtils.OrganizationRoutingConfigOptions(&routingOpts)
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "thresholds",
			Usage:          `Comma-separated days before the end date that trigger a reminder, e.g. "90,60,30". Defaults to each organization's settings.`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionThresholds,
			ConfigKey:      &thresholds,
			Required:       false,
		},
		maxConcurrencyConfigOption(&maxConcurrency),
	)

	cmd := &cobra.Command{
		Use:              "expiry-notifications",
		Short:            "Enqueue the pending lease expiry reminders once",
		PersistentPreRun: subcommandPreRun(configOpts),
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if err := routingOpts.ValidateFlags(); err != nil {
				log.Ctx(ctx).Fatal(err.Error())
			}

			models, closeFn := openModels(ctx)
			defer closeFn()

			organizationIDs, err := resolveOrganizationIDs(ctx, models, routingOpts)
			if err != nil {
				log.Ctx(ctx).Fatalf("Error resolving organizations: %v", err)
			}

			service, err := services.NewLeaseExpiryNotificationService(models, nil, nil)
			if err != nil {
				log.Ctx(ctx).Fatalf("Error creating lease expiry notification service: %v", err)
			}

			reports, err := leasesService.ProcessExpiryNotifications(ctx, service, organizationIDs, thresholds, maxConcurrency)
			for _, report := range reports {
				log.Ctx(ctx).WithFields(log.F{
					"organization_id": report.OrganizationID,
					"scanned":         report.Scanned,
					"enqueued":        report.Enqueued,
					"skipped":         report.Skipped,
					"failed":          report.Failed,
				}).Info("Processed lease expiry notifications")
			}
			if err != nil {
				log.Ctx(ctx).Fatalf("Error processing lease expiry notifications: %v", err)
			}
		},
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *LeasesCommand) autoRenewalsCmd(leasesService LeasesCommandServiceInterface, crashTrackerOptions *crashtracker.CrashTrackerOptions) *cobra.Command {
	routingOpts := cmdUtils.OrganizationRoutingOptions{}
	var withinDays int
	var rentIncreasePercent *decimal.Decimal
	var maxConcurrency int
	var complianceRegistrationType services.ComplianceRegistrationType

	var configOpts config.ConfigOptions = cmdUtils.OrganizationRoutingConfigOptions(&routingOpts)
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:      "within-days",
			Usage:     "Renew auto-renew leases ending within this many days. Defaults to each organization's settings.",
			OptType:   types.Int,
			ConfigKey: &withinDays,
			Required:  false,
		},
		&config.ConfigOption{
			Name:           "rent-increase-percent",
			Usage:          "Percentage applied to the renewed monthly rent, e.g. 5. Defaults to each organization's settings.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionOptionalDecimal,
			ConfigKey:      &rentIncreasePercent,
			Required:       false,
		},
		maxConcurrencyConfigOption(&maxConcurrency),
		cmdUtils.ComplianceRegistrationTypeConfigOption(&complianceRegistrationType),
	)

	cmd := &cobra.Command{
		Use:              "auto-renewals",
		Short:            "Renew the auto-renew leases nearing their end date once",
		PersistentPreRun: subcommandPreRun(configOpts),
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if err := routingOpts.ValidateFlags(); err != nil {
				log.Ctx(ctx).Fatal(err.Error())
			}

			models, closeFn := openModels(ctx)
			defer closeFn()

			organizationIDs, err := resolveOrganizationIDs(ctx, models, routingOpts)
			if err != nil {
				log.Ctx(ctx).Fatalf("Error resolving organizations: %v", err)
			}

			lifecycleService := newLifecycleService(ctx, models, *crashTrackerOptions, complianceRegistrationType)
			service, err := services.NewLeaseAutoRenewalService(models, lifecycleService, nil, nil)
			if err != nil {
				log.Ctx(ctx).Fatalf("Error creating lease auto-renewal service: %v", err)
			}

			reports, err := leasesService.ProcessAutoRenewals(ctx, service, organizationIDs, withinDays, rentIncreasePercent, maxConcurrency)
			for _, report := range reports {
				log.Ctx(ctx).WithFields(log.F{
					"organization_id":    report.OrganizationID,
					"scanned":            report.Scanned,
					"renewed":            report.Renewed,
					"skipped_claimed":    report.SkippedClaimed,
					"skipped_concurrent": report.SkippedConcurrent,
					"failed":             report.Failed,
					"failed_lease_ids":   report.FailedLeaseIDs,
				}).Info("Processed lease auto-renewals")
			}
			if err != nil {
				log.Ctx(ctx).Fatalf("Error processing lease auto-renewals: %v", err)
			}
		},
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

type leaseRefOptions struct {
	OrganizationID string
	LeaseID        string
}

func leaseRefConfigOptions(opts *leaseRefOptions) []*config.ConfigOption {
	organizationOpt := cmdUtils.SingleOrganizationConfigOption(&opts.OrganizationID)
	organizationOpt.Required = true
	return []*config.ConfigOption{
		organizationOpt,
		{
			Name:      "lease-id",
			Usage:     "The ID of the lease.",
			OptType:   types.String,
			ConfigKey: &opts.LeaseID,
			Required:  true,
		},
	}
}

func (c *LeasesCommand) activateCmd(crashTrackerOptions *crashtracker.CrashTrackerOptions) *cobra.Command {
	refOpts := leaseRefOptions{}
	var complianceRegistrationType services.ComplianceRegistrationType

	var configOpts config.ConfigOptions = leaseRefConfigOptions(&refOpts)
	configOpts = append(configOpts, cmdUtils.ComplianceRegistrationTypeConfigOption(&complianceRegistrationType))

	cmd := &cobra.Command{
		Use:              "activate",
		Short:            "Activate a DRAFT or PENDING_APPROVAL lease, occupying its unit",
		PersistentPreRun: subcommandPreRun(configOpts),
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := appcontext.SetUserIDInContext(cmd.Context(), appcontext.SystemActor)

			models, closeFn := openModels(ctx)
			defer closeFn()
			lifecycleService := newLifecycleService(ctx, models, *crashTrackerOptions, complianceRegistrationType)

			lease, err := services.RetryOnConcurrentModification(ctx, services.DefaultConcurrentModificationAttempts, func() (*data.Lease, error) {
				return lifecycleService.ActivateLease(ctx, refOpts.OrganizationID, refOpts.LeaseID)
			})
			if err != nil {
				log.Ctx(ctx).Fatalf("Error activating lease %s: %v", refOpts.LeaseID, err)
			}

			log.Ctx(ctx).WithFields(log.F{
				"lease_id":     lease.ID,
				"lease_number": lease.LeaseNumber,
				"status":       lease.Status,
			}).Info("Lease activated")
		},
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *LeasesCommand) renewCmd(crashTrackerOptions *crashtracker.CrashTrackerOptions) *cobra.Command {
	refOpts := leaseRefOptions{}
	var newEndDate time.Time
	var newMonthlyRent *decimal.Decimal
	var complianceRegistrationType services.ComplianceRegistrationType

	var configOpts config.ConfigOptions = leaseRefConfigOptions(&refOpts)
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "new-end-date",
			Usage:          "The end date of the successor lease, formatted as YYYY-MM-DD.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionDate,
			ConfigKey:      &newEndDate,
			Required:       true,
		},
		&config.ConfigOption{
			Name:           "new-monthly-rent",
			Usage:          "The monthly rent of the successor lease.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionOptionalDecimal,
			ConfigKey:      &newMonthlyRent,
			Required:       true,
		},
		cmdUtils.ComplianceRegistrationTypeConfigOption(&complianceRegistrationType),
	)

	cmd := &cobra.Command{
		Use:              "renew",
		Short:            "Renew an ACTIVE lease into a new successor lease",
		PersistentPreRun: subcommandPreRun(configOpts),
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := appcontext.SetUserIDInContext(cmd.Context(), appcontext.SystemActor)
			if newMonthlyRent == nil {
				log.Ctx(ctx).Fatal("new-monthly-rent is required")
			}

			models, closeFn := openModels(ctx)
			defer closeFn()
			lifecycleService := newLifecycleService(ctx, models, *crashTrackerOptions, complianceRegistrationType)

			result, err := services.RetryOnConcurrentModification(ctx, services.DefaultConcurrentModificationAttempts, func() (*services.RenewLeaseResult, error) {
				return lifecycleService.RenewLease(ctx, services.RenewLeaseRequest{
					OrganizationID: refOpts.OrganizationID,
					LeaseID:        refOpts.LeaseID,
					NewEndDate:     newEndDate,
					NewMonthlyRent: *newMonthlyRent,
				})
			})
			if err != nil {
				log.Ctx(ctx).Fatalf("Error renewing lease %s: %v", refOpts.LeaseID, err)
			}

			log.Ctx(ctx).WithFields(log.F{
				"lease_id":               result.Predecessor.ID,
				"successor_lease_id":     result.Successor.ID,
				"successor_lease_number": result.Successor.LeaseNumber,
				"successor_start_date":   data.SQLDate(result.Successor.StartDate),
				"successor_end_date":     data.SQLDate(result.Successor.EndDate),
			}).Info("Lease renewed")
		},
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *LeasesCommand) terminateCmd(crashTrackerOptions *crashtracker.CrashTrackerOptions) *cobra.Command {
	refOpts := leaseRefOptions{}
	var terminationDate time.Time
	var reason string

	var configOpts config.ConfigOptions = leaseRefConfigOptions(&refOpts)
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "termination-date",
			Usage:          "The date the lease ends, formatted as YYYY-MM-DD. Defaults to today.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionDate,
			ConfigKey:      &terminationDate,
			Required:       false,
		},
		&config.ConfigOption{
			Name:      "reason",
			Usage:     "Why the lease is terminated.",
			OptType:   types.String,
			ConfigKey: &reason,
			Required:  true,
		},
	)

	cmd := &cobra.Command{
		Use:              "terminate",
		Short:            "Terminate an ACTIVE lease and vacate its unit",
		PersistentPreRun: subcommandPreRun(configOpts),
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := appcontext.SetUserIDInContext(cmd.Context(), appcontext.SystemActor)

			models, closeFn := openModels(ctx)
			defer closeFn()
			lifecycleService := newLifecycleService(ctx, models, *crashTrackerOptions, services.ComplianceRegistrationTypeNone)

			result, err := services.RetryOnConcurrentModification(ctx, services.DefaultConcurrentModificationAttempts, func() (*services.TerminateLeaseResult, error) {
				return lifecycleService.TerminateLease(ctx, services.TerminateLeaseRequest{
					OrganizationID:  refOpts.OrganizationID,
					LeaseID:         refOpts.LeaseID,
					TerminationDate: terminationDate,
					Reason:          reason,
				})
			})
			if err != nil {
				log.Ctx(ctx).Fatalf("Error terminating lease %s: %v", refOpts.LeaseID, err)
			}

			fields := log.F{
				"lease_id":     result.Lease.ID,
				"lease_number": result.Lease.LeaseNumber,
				"status":       result.Lease.Status,
			}
			if result.EarlyTerminationFee != nil {
				fields["early_termination_fee"] = result.EarlyTerminationFee.String()
			}
			log.Ctx(ctx).WithFields(fields).Info("Lease terminated")
		},
	}
	if err := configOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

// openModels opens a connection pool to the global database URL. The returned func closes it.
func openModels(ctx context.Context) (*data.Models, func()) {
	dbConnectionPool, err := db.OpenDBConnectionPool(globalOptions.DatabaseURL)
	if err != nil {
		log.Ctx(ctx).Fatalf("Error opening DB connection pool: %v", err)
	}
	closeFn := func() {
		if closeErr := dbConnectionPool.Close(); closeErr != nil {
			log.Ctx(ctx).Errorf("closing DB connection pool: %v", closeErr)
		}
	}

	models, err := data.NewModels(dbConnectionPool)
	if err != nil {
		closeFn()
		log.Ctx(ctx).Fatalf("Error creating models: %v", err)
	}
	return models, closeFn
}

func newLifecycleService(ctx context.Context, models *data.Models, crashTrackerOptions crashtracker.CrashTrackerOptions, complianceRegistrationType services.ComplianceRegistrationType) *services.LeaseLifecycleService {
	crashTrackerClient, err := crashtracker.GetClient(ctx, crashTrackerOptions)
	if err != nil {
		log.Ctx(ctx).Fatalf("Error creating crash tracker client: %v", err)
	}

	complianceClient, err := services.NewComplianceRegistrationClient(complianceRegistrationType)
	if err != nil {
		log.Ctx(ctx).Fatalf("Error creating compliance registration client: %v", err)
	}

	lifecycleService, err := services.NewLeaseLifecycleService(services.LeaseLifecycleServiceOptions{
		Models:             models,
		ComplianceClient:   complianceClient,
		CrashTrackerClient: crashTrackerClient,
	})
	if err != nil {
		log.Ctx(ctx).Fatalf("Error creating lease lifecycle service: %v", err)
	}
	return lifecycleService
}

// resolveOrganizationIDs returns the organization passed with --organization-id, or every organization with --all.
func resolveOrganizationIDs(ctx context.Context, models *data.Models, routingOpts cmdUtils.OrganizationRoutingOptions) ([]string, error) {
	if routingOpts.OrganizationID != "" {
		return []string{routingOpts.OrganizationID}, nil
	}

	organizations, err := models.Organizations.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting all organizations: %w", err)
	}
	organizationIDs := make([]string, 0, len(organizations))
	for _, organization := range organizations {
		organizationIDs = append(organizationIDs, organization.ID)
	}
	return organizationIDs, nil
}
