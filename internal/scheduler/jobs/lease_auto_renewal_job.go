package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/services"
)

const LeaseAutoRenewalJobName = "lease_auto_renewal_job"

// LeaseAutoRenewalJob periodically renews the auto-renew leases of each organization that entered its renewal window.
type LeaseAutoRenewalJob struct {
	service            services.LeaseAutoRenewalServiceInterface
	jobIntervalSeconds int
}

func NewLeaseAutoRenewalJob(jobIntervalSeconds int, service services.LeaseAutoRenewalServiceInterface) *LeaseAutoRenewalJob {
	return &LeaseAutoRenewalJob{
		service:            service,
		jobIntervalSeconds: jobIntervalSeconds,
	}
}

func (j LeaseAutoRenewalJob) GetName() string {
	return LeaseAutoRenewalJobName
}

func (j LeaseAutoRenewalJob) GetInterval() time.Duration {
	return intervalOrMinimum(j.GetName(), j.jobIntervalSeconds)
}

func (j LeaseAutoRenewalJob) IsJobMultiOrganization() bool {
	return true
}

func (j LeaseAutoRenewalJob) Execute(ctx context.Context) error {
	organizationID, err := appcontext.GetOrganizationIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("executing %s: %w", j.GetName(), err)
	}

	report, err := j.service.ProcessAutoRenewals(ctx, services.ProcessAutoRenewalsRequest{OrganizationID: organizationID})
	if err != nil {
		return fmt.Errorf("executing %s: %w", j.GetName(), err)
	}
	if report.Failed > 0 {
		log.Ctx(ctx).Warnf("%d leases of organization %s failed to auto-renew and will be retried: %v",
			report.Failed, organizationID, report.FailedLeaseIDs)
	}
	return nil
}

var _ Job = (*LeaseAutoRenewalJob)(nil)
