package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/scheduler/jobs"
	"github.com/fixzit/lease-engine/internal/services"
)

// OrganizationLister lists the organizations multi-organization jobs run for.
type OrganizationLister interface {
	GetAll(ctx context.Context) ([]*data.Organization, error)
}

// Scheduler runs registered jobs at their intervals on a fixed pool of workers. A job is never queued twice: a tick
// that finds the job still queued or running is skipped.
type Scheduler struct {
	jobs               map[string]jobs.Job
	cancel             context.CancelFunc
	crashTrackerClient crashtracker.CrashTrackerClient
	organizations      OrganizationLister
	jobQueue           chan jobs.Job
	// pendingJobs holds the names of the jobs queued or running.
	pendingJobs sync.Map
}

type SchedulerJobRegisterOption func(*Scheduler)

type SchedulerOptions struct {
	ExpiryNotificationJobIntervalSeconds int
	AutoRenewalJobIntervalSeconds        int
}

// SchedulerWorkerCount is the number of jobs that may run at the same time.
const SchedulerWorkerCount = 5

const crashTrackerFlushTimeout = 2 * time.Second

// StartScheduler registers the jobs and runs them until the process receives SIGINT, SIGTERM or SIGQUIT.
func StartScheduler(organizations OrganizationLister, crashTrackerClient crashtracker.CrashTrackerClient, schedulerJobRegisters ...SchedulerJobRegisterOption) {
	defer crashTrackerClient.FlushEvents(crashTrackerFlushTimeout)
	defer crashTrackerClient.Recover()

	ctx, cancel := context.WithCancel(context.Background())
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signalChan)

	scheduler := newScheduler(cancel)
	scheduler.crashTrackerClient = crashTrackerClient
	scheduler.organizations = organizations
	for _, register := range schedulerJobRegisters {
		register(scheduler)
	}

	scheduler.start(ctx)
	sig := <-signalChan
	log.Ctx(ctx).Infof("Received %s", sig)
	scheduler.stop()
}

func newScheduler(cancel context.CancelFunc) *Scheduler {
	return &Scheduler{
		jobs:     make(map[string]jobs.Job),
		cancel:   cancel,
		jobQueue: make(chan jobs.Job),
	}
}

// addJob registers a job. Registering a job under an existing name replaces it.
func (s *Scheduler) addJob(job jobs.Job) {
	log.Infof("registering job to scheduler [name: %s], [interval: %s], [isMultiOrganization: %t]",
		job.GetName(), job.GetInterval(), job.IsJobMultiOrganization())
	s.jobs[job.GetName()] = job
}

// start launches the workers and one ticker per job, and returns. Everything stops when ctx is done.
func (s *Scheduler) start(ctx context.Context) {
	if len(s.jobs) == 0 {
		log.Ctx(ctx).Info("No jobs to start")
		s.stop()
		return
	}

	log.Ctx(ctx).Infof("Starting scheduler with %d workers...", SchedulerWorkerCount)
	for workerID := 1; workerID <= SchedulerWorkerCount; workerID++ {
		go s.work(ctx, workerID, s.crashTrackerClient.Clone())
	}
	for _, job := range s.jobs {
		go s.tick(ctx, job)
	}
}

func (s *Scheduler) stop() {
	log.Info("Stopping scheduler...")
	s.cancel()
}

// tick queues job at every interval until ctx is done.
func (s *Scheduler) tick(ctx context.Context, job jobs.Job) {
	ticker := time.NewTicker(job.GetInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		jobName := job.GetName()
		if _, pending := s.pendingJobs.LoadOrStore(jobName, true); pending {
			log.Ctx(ctx).Debugf("Skipping job %s, already in queue", jobName)
			continue
		}

		log.Ctx(ctx).Debugf("Enqueuing job: %s", jobName)
		select {
		case s.jobQueue <- job:
		case <-ctx.Done():
			return
		}
	}
}

// work runs queued jobs until ctx is done.
func (s *Scheduler) work(ctx context.Context, workerID int, crashTrackerClient crashtracker.CrashTrackerClient) {
	for {
		select {
		case job := <-s.jobQueue:
			runJob(ctx, job, workerID, crashTrackerClient, s.organizations)
			s.pendingJobs.Delete(job.GetName())
		case <-ctx.Done():
			log.Ctx(ctx).Infof("Worker %d stopping...", workerID)
			return
		}
	}
}

// runJob executes job, reporting a panic instead of letting it kill the worker.
func runJob(ctx context.Context, job jobs.Job, workerID int, crashTrackerClient crashtracker.CrashTrackerClient, organizations OrganizationLister) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic processing job %s on worker %d", job.GetName(), workerID)
			crashTrackerClient.LogAndReportErrors(ctx, fmt.Errorf("%v", r), msg)
		}
	}()

	executeJob(ctx, job, workerID, crashTrackerClient, organizations)
}

// executeJob executes a job and reports any errors to the crash tracker. Multi-organization jobs run once per
// organization, with the organization ID saved in the context.
func executeJob(ctx context.Context, job jobs.Job, workerID int, crashTrackerClient crashtracker.CrashTrackerClient, organizations OrganizationLister) {
	if !job.IsJobMultiOrganization() {
		log.Ctx(ctx).Debugf("Processing job %s on worker %d", job.GetName(), workerID)
		if err := job.Execute(ctx); err != nil {
			msg := fmt.Sprintf("error processing job %s on worker %d", job.GetName(), workerID)
			crashTrackerClient.LogAndReportErrors(ctx, err, msg)
		}
		return
	}

	if organizations == nil {
		crashTrackerClient.LogAndReportMessages(ctx, fmt.Sprintf("no organization lister configured for job %s", job.GetName()))
		return
	}

	orgs, err := organizations.GetAll(ctx)
	if err != nil {
		msg := fmt.Sprintf("error getting all organizations for job %s on worker %d", job.GetName(), workerID)
		crashTrackerClient.LogAndReportErrors(ctx, err, msg)
		return
	}
	for _, org := range orgs {
		log.Ctx(ctx).Debugf("Processing job %s for organization %s on worker %d", job.GetName(), org.ID, workerID)
		orgCtx := appcontext.SetOrganizationIDInContext(ctx, org.ID)
		if err = job.Execute(orgCtx); err != nil {
			msg := fmt.Sprintf("error processing job %s for organization %s on worker %d", job.GetName(), org.ID, workerID)
			crashTrackerClient.LogAndReportErrors(orgCtx, err, msg)
		}
	}
}

func WithLeaseExpiryNotificationJobOption(intervalSeconds int, service services.LeaseExpiryNotificationServiceInterface) SchedulerJobRegisterOption {
	return func(s *Scheduler) {
		j := jobs.NewLeaseExpiryNotificationJob(intervalSeconds, service)
		s.addJob(j)
	}
}

func WithLeaseAutoRenewalJobOption(intervalSeconds int, service services.LeaseAutoRenewalServiceInterface) SchedulerJobRegisterOption {
	return func(s *Scheduler) {
		j := jobs.NewLeaseAutoRenewalJob(intervalSeconds, service)
		s.addJob(j)
	}
}
