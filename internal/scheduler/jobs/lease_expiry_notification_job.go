package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/services"
)

const LeaseExpiryNotificationJobName = "lease_expiry_notification_job"

// LeaseExpiryNotificationJob periodically enqueues the lease expiry reminders of each organization, using the
// thresholds configured for it.
type LeaseExpiryNotificationJob struct {
	service            services.LeaseExpiryNotificationServiceInterface
	jobIntervalSeconds int
}

func NewLeaseExpiryNotificationJob(jobIntervalSeconds int, service services.LeaseExpiryNotificationServiceInterface) *LeaseExpiryNotificationJob {
	return &LeaseExpiryNotificationJob{
		service:            service,
		jobIntervalSeconds: jobIntervalSeconds,
	}
}

func (j LeaseExpiryNotificationJob) GetName() string {
	return LeaseExpiryNotificationJobName
}

func (j LeaseExpiryNotificationJob) GetInterval() time.Duration {
	return intervalOrMinimum(j.GetName(), j.jobIntervalSeconds)
}

func (j LeaseExpiryNotificationJob) IsJobMultiOrganization() bool {
	return true
}

func (j LeaseExpiryNotificationJob) Execute(ctx context.Context) error {
	organizationID, err := appcontext.GetOrganizationIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("executing %s: %w", j.GetName(), err)
	}

	_, err = j.service.ProcessLeaseExpiryNotifications(ctx, services.ProcessLeaseExpiryNotificationsRequest{OrganizationID: organizationID})
	if err != nil {
		return fmt.Errorf("executing %s: %w", j.GetName(), err)
	}
	return nil
}

var _ Job = (*LeaseExpiryNotificationJob)(nil)
