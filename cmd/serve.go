package cmd

import (
	"context"
	"fmt"
	"go/types"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/fixzit/lease-engine/cmd/utils"
	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
	"github.com/fixzit/lease-engine/internal/scheduler"
	"github.com/fixzit/lease-engine/internal/serve"
	"github.com/fixzit/lease-engine/internal/services"
)

type ServeCommand struct{}

type ServerServiceInterface interface {
	StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface)
	StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface)
	StartScheduler(organizations scheduler.OrganizationLister, crashTrackerClient crashtracker.CrashTrackerClient, schedulerJobRegistrars ...scheduler.SchedulerJobRegisterOption)
	GetSchedulerJobRegistrars(ctx context.Context, serveOpts serve.ServeOptions, schedulerOptions scheduler.SchedulerOptions) ([]scheduler.SchedulerJobRegisterOption, error)
}

type ServerService struct{}

// Making sure that ServerService implements ServerServiceInterface
var _ ServerServiceInterface = (*ServerService)(nil)

func (s *ServerService) StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.Serve(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting server: %s", err.Error())
	}
}

func (s *ServerService) StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.MetricsServe(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting metrics server: %s", err.Error())
	}
}

func (s *ServerService) StartScheduler(organizations scheduler.OrganizationLister, crashTrackerClient crashtracker.CrashTrackerClient, schedulerJobRegistrars ...scheduler.SchedulerJobRegisterOption) {
	scheduler.StartScheduler(organizations, crashTrackerClient, schedulerJobRegistrars...)
}

// GetSchedulerJobRegistrars builds the expiry notification and auto-renewal jobs on top of the server's models and
// lifecycle service.
func (s *ServerService) GetSchedulerJobRegistrars(ctx context.Context, serveOpts serve.ServeOptions, schedulerOptions scheduler.SchedulerOptions) ([]scheduler.SchedulerJobRegisterOption, error) {
	lifecycleService, ok := serveOpts.LifecycleService.(*services.LeaseLifecycleService)
	if !ok {
		return nil, fmt.Errorf("lifecycle service has an unexpected type %T", serveOpts.LifecycleService)
	}

	expiryNotificationService, err := services.NewLeaseExpiryNotificationService(serveOpts.Models, serveOpts.MonitorService, nil)
	if err != nil {
		return nil, fmt.Errorf("creating lease expiry notification service: %w", err)
	}

	autoRenewalService, err := services.NewLeaseAutoRenewalService(serveOpts.Models, lifecycleService, serveOpts.MonitorService, nil)
	if err != nil {
		return nil, fmt.Errorf("creating lease auto-renewal service: %w", err)
	}

	return []scheduler.SchedulerJobRegisterOption{
		scheduler.WithLeaseExpiryNotificationJobOption(schedulerOptions.ExpiryNotificationJobIntervalSeconds, expiryNotificationService),
		scheduler.WithLeaseAutoRenewalJobOption(schedulerOptions.AutoRenewalJobIntervalSeconds, autoRenewalService),
	}, nil
}

func (c *ServeCommand) Command(serverService ServerServiceInterface, monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := serve.ServeOptions{}
	schedulerOptions := scheduler.SchedulerOptions{}
	var enableScheduler bool
	var complianceRegistrationType services.ComplianceRegistrationType

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the ops server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8000,
			Required:    true,
		},
		{
			Name:        "enable-scheduler",
			Usage:       "Enable the scheduler that runs the lease expiry notification and auto-renewal jobs.",
			OptType:     types.Bool,
			ConfigKey:   &enableScheduler,
			FlagDefault: false,
			Required:    false,
		},
		cmdUtils.ComplianceRegistrationTypeConfigOption(&complianceRegistrationType),
	}
	configOpts = append(configOpts, cmdUtils.SchedulerConfigOptions(&schedulerOptions)...)

	dbPoolOptions := cmdUtils.DBPoolOptions{}
	configOpts = append(configOpts, cmdUtils.DBPoolConfigOptions(&dbPoolOptions)...)

	// crash tracker options
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	configOpts = append(configOpts, cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType))

	// metrics server options
	metricsServeOpts := serve.MetricsServeOptions{}
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "metrics-type",
			Usage:          `Metric monitor type. Options: "PROMETHEUS"`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionMetricType,
			ConfigKey:      &metricsServeOpts.MetricType,
			FlagDefault:    "PROMETHEUS",
			Required:       true,
		},
		&config.ConfigOption{
			Name:        "metrics-port",
			Usage:       "Port where the metrics server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &metricsServeOpts.Port,
			FlagDefault: 8002,
			Required:    true,
		})

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lease engine ops API, metrics and scheduled jobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			// Validate & ingest input parameters
			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}

			// Initializing monitor service
			metricOptions := monitor.MetricOptions{
				MetricType:  metricsServeOpts.MetricType,
				Environment: globalOptions.Environment,
			}
			err = monitorService.Start(metricOptions)
			if err != nil {
				log.Fatalf("Error creating monitor service: %s", err.Error())
			}

			// Inject crash tracker options dependencies
			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

			// Inject server dependencies
			serveOpts.Environment = globalOptions.Environment
			serveOpts.GitCommit = globalOptions.GitCommit
			serveOpts.Version = globalOptions.Version
			serveOpts.MonitorService = monitorService

			// Inject metrics server dependencies
			metricsServeOpts.MonitorService = monitorService
			metricsServeOpts.Environment = globalOptions.Environment
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			// Setup the Crash Tracker client
			crashTrackerClient, err := crashtracker.GetClient(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			// Setup the DB connection pool and models. The pool is closed by the ops server when it stops.
			dbConnectionPool, err := db.OpenDBConnectionPoolWithMetricsAndConfig(globalOptions.DatabaseURL, dbPoolOptions.DBPoolConfig(), monitorService)
			if err != nil {
				log.Ctx(ctx).Fatalf("error opening DB connection pool: %s", err.Error())
			}
			serveOpts.Models, err = data.NewModels(dbConnectionPool)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating models: %s", err.Error())
			}

			// Setup the lease lifecycle service
			complianceClient, err := services.NewComplianceRegistrationClient(complianceRegistrationType)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating compliance registration client: %s", err.Error())
			}
			serveOpts.LifecycleService, err = services.NewLeaseLifecycleService(services.LeaseLifecycleServiceOptions{
				Models:             serveOpts.Models,
				ComplianceClient:   complianceClient,
				CrashTrackerClient: crashTrackerClient.Clone(),
				MonitorService:     monitorService,
			})
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating lease lifecycle service: %s", err.Error())
			}

			// Starting Scheduler Service (background job) if enabled
			if enableScheduler {
				log.Ctx(ctx).Info("Starting Scheduler Service...")
				schedulerJobRegistrars, innerErr := serverService.GetSchedulerJobRegistrars(ctx, serveOpts, schedulerOptions)
				if innerErr != nil {
					log.Ctx(ctx).Fatalf("Error getting scheduler job registrars: %v", innerErr)
				}
				go serverService.StartScheduler(serveOpts.Models.Organizations, crashTrackerClient.Clone(), schedulerJobRegistrars...)
			} else {
				log.Ctx(ctx).Warn("Scheduler Service is disabled.")
			}

			// Starting Metrics Server (background job)
			log.Ctx(ctx).Info("Starting Metrics Server...")
			go serverService.StartMetricsServe(metricsServeOpts, &serve.HTTPServer{})

			// Starting Application Server
			log.Ctx(ctx).Info("Starting Ops Server...")
			serverService.StartServe(serveOpts, &serve.HTTPServer{})
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
