package serve

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
	"github.com/fixzit/lease-engine/internal/serve/httperror"
	"github.com/fixzit/lease-engine/internal/serve/httphandler"
	"github.com/fixzit/lease-engine/internal/serve/middleware"
	"github.com/fixzit/lease-engine/internal/services"
)

const ServiceID = "lease-engine"

type HTTPServerInterface interface {
	Run(conf supporthttp.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf supporthttp.Config) {
	supporthttp.Run(conf)
}

type ServeOptions struct {
	Environment        string
	GitCommit          string
	Port               int
	Version            string
	Models             *data.Models
	LifecycleService   services.LeaseLifecycleServiceInterface
	MonitorService     monitor.MonitorServiceInterface
	CrashTrackerClient crashtracker.CrashTrackerClient
}

func (opts ServeOptions) validate() error {
	if opts.Models == nil || opts.Models.DBConnectionPool == nil {
		return errors.New("models with a DB connection pool are required")
	}
	if opts.LifecycleService == nil {
		return errors.New("lifecycle service is required")
	}
	return nil
}

// Serve runs the ops server: the health check and the read-only lease queries. It blocks until the server stops, and
// closes the database connection pool on the way out.
func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.validate(); err != nil {
		return fmt.Errorf("validating serve options: %w", err)
	}

	if opts.CrashTrackerClient != nil {
		httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)
	}

	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := supporthttp.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        time.Second * 35,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting Lease Engine Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the database connection...")
			err := opts.Models.DBConnectionPool.Close()
			if err != nil {
				log.Errorf("error closing database connection: %s", err.Error())
			}

			log.Info("Stopping Lease Engine Server")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	if o.MonitorService != nil {
		mux.Use(middleware.MetricsRequestHandler(o.MonitorService))
	}

	mux.Get("/health", httphandler.HealthHandler{
		ReleaseID:        o.GitCommit,
		ServiceID:        ServiceID,
		Version:          o.Version,
		DBConnectionPool: o.Models.DBConnectionPool,
	}.ServeHTTP)

	leasesHandler := httphandler.LeasesHandler{LifecycleService: o.LifecycleService}
	mux.Route("/organizations/{organization_id}", func(r chi.Router) {
		r.Use(middleware.OrganizationMiddleware)

		r.Route("/leases", func(r chi.Router) {
			r.Get("/expiring", leasesHandler.GetExpiringLeases)
			r.Get("/{lease_id}", leasesHandler.GetLease)
		})
		r.Get("/properties/{property_id}/leases", leasesHandler.GetPropertyLeases)
	})

	return mux
}
