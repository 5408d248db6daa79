package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
)

const leaseExpiryNotificationJobName = "lease_expiry_notification"

type LeaseExpiryNotificationServiceInterface interface {
	ProcessLeaseExpiryNotifications(ctx context.Context, req ProcessLeaseExpiryNotificationsRequest) (*LeaseExpiryNotificationReport, error)
}

var _ LeaseExpiryNotificationServiceInterface = (*LeaseExpiryNotificationService)(nil)

type ProcessLeaseExpiryNotificationsRequest struct {
	OrganizationID string
	// Thresholds are the days-before-end-date that trigger a reminder. Empty uses the organization's settings.
	Thresholds []int
}

type LeaseExpiryNotificationReport struct {
	OrganizationID string `json:"organization_id"`
	Scanned        int    `json:"scanned"`
	Enqueued       int    `json:"enqueued"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
}

// LeaseExpiryNotificationService enqueues one expiry reminder per lease and day-threshold. Each reminder is guarded by
// recording the threshold on the lease first, so repeated or concurrent runs never enqueue it twice.
type LeaseExpiryNotificationService struct {
	models         *data.Models
	monitorService monitor.MonitorServiceInterface
	now            func() time.Time
}

func NewLeaseExpiryNotificationService(models *data.Models, monitorService monitor.MonitorServiceInterface, now func() time.Time) (*LeaseExpiryNotificationService, error) {
	if models == nil {
		return nil, errors.New("models cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	return &LeaseExpiryNotificationService{models: models, monitorService: monitorService, now: now}, nil
}

func (s *LeaseExpiryNotificationService) ProcessLeaseExpiryNotifications(ctx context.Context, req ProcessLeaseExpiryNotificationsRequest) (report *LeaseExpiryNotificationReport, err error) {
	startedAt := time.Now()
	defer func() { recordJobRun(ctx, s.monitorService, leaseExpiryNotificationJobName, startedAt, err) }()

	v := NewValidator()
	v.CheckID(req.OrganizationID, "organization_id")
	for _, threshold := range req.Thresholds {
		v.Check(threshold > 0, "thresholds", "thresholds must be greater than zero")
	}
	if err = v.ValidationError("invalid expiry notification request"); err != nil {
		return nil, err
	}

	thresholds := req.Thresholds
	if len(thresholds) == 0 {
		organization, orgErr := s.models.Organizations.Get(ctx, req.OrganizationID)
		if orgErr != nil {
			return nil, translateDataError(orgErr, fmt.Sprintf("getting organization %s", req.OrganizationID))
		}
		thresholds = organization.Thresholds()
	}

	report = &LeaseExpiryNotificationReport{OrganizationID: req.OrganizationID}
	today := dateOf(s.now())
	for _, threshold := range uniqueSortedDesc(thresholds) {
		endDate := today.AddDate(0, 0, threshold)
		leases, queryErr := s.models.Leases.GetPendingExpiryReminders(ctx, s.models.DBConnectionPool, req.OrganizationID, endDate, threshold)
		if queryErr != nil {
			return report, fmt.Errorf("getting leases for the %d days reminder: %w", threshold, queryErr)
		}

		for _, lease := range leases {
			report.Scanned++
			enqueued, leaseErr := s.enqueueReminder(ctx, lease, threshold)
			switch {
			case leaseErr != nil:
				report.Failed++
				log.Ctx(ctx).Errorf("Enqueuing the %d days reminder of lease %s: %v", threshold, lease.ID, leaseErr)
				recordJobItem(ctx, s.monitorService, leaseExpiryNotificationJobName, "failed")
			case enqueued:
				report.Enqueued++
				recordJobItem(ctx, s.monitorService, leaseExpiryNotificationJobName, "enqueued")
				recordNotificationEnqueued(ctx, s.monitorService, data.LeaseExpiryReminderNotificationType)
			default:
				report.Skipped++
				recordJobItem(ctx, s.monitorService, leaseExpiryNotificationJobName, "skipped")
			}
		}
	}

	log.Ctx(ctx).Infof("Lease expiry notifications for organization %s: scanned=%d enqueued=%d skipped=%d failed=%d",
		report.OrganizationID, report.Scanned, report.Enqueued, report.Skipped, report.Failed)
	return report, nil
}

// enqueueReminder records the threshold on the lease and, only when that guarded write applied, inserts the
// notification in the same transaction.
func (s *LeaseExpiryNotificationService) enqueueReminder(ctx context.Context, lease *data.Lease, threshold int) (bool, error) {
	return db.RunInTransactionWithResult(ctx, s.models.DBConnectionPool, nil, func(dbTx db.DBTransaction) (bool, error) {
		applied, err := s.models.Leases.AddNotificationThreshold(ctx, dbTx, lease.ID, threshold)
		if err != nil {
			return false, fmt.Errorf("recording reminder threshold: %w", err)
		}
		if !applied {
			return false, nil
		}

		_, err = s.models.Notifications.Insert(ctx, dbTx, data.NotificationInsert{
			OrganizationID: lease.OrganizationID,
			Type:           data.LeaseExpiryReminderNotificationType,
			RecipientID:    lease.TenantID,
			Data: data.NotificationData{
				"lease_id":       lease.ID,
				"lease_number":   lease.LeaseNumber,
				"end_date":       data.SQLDate(lease.EndDate),
				"days_remaining": threshold,
			},
		})
		if err != nil {
			return false, fmt.Errorf("inserting expiry reminder: %w", err)
		}

		return true, nil
	})
}

func uniqueSortedDesc(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	unique := make([]int, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(unique)))
	return unique
}

func recordJobItem(ctx context.Context, monitorService monitor.MonitorServiceInterface, job, itemOutcome string) {
	if monitorService == nil {
		return
	}
	labels := monitor.LeaseJobLabels{Job: job, Outcome: itemOutcome}
	if err := monitorService.MonitorCounters(monitor.LeaseJobItemsCounterTag, labels.ToMap()); err != nil {
		log.Ctx(ctx).Errorf("monitoring %s job item: %v", job, err)
	}
}

func recordJobRun(ctx context.Context, monitorService monitor.MonitorServiceInterface, job string, startedAt time.Time, err error) {
	if monitorService == nil {
		return
	}
	labels := monitor.LeaseJobLabels{Job: job, Outcome: outcome(err)}
	if monitorErr := monitorService.MonitorDuration(time.Since(startedAt), monitor.LeaseJobDurationTag, labels.ToMap()); monitorErr != nil {
		log.Ctx(ctx).Errorf("monitoring %s job duration: %v", job, monitorErr)
	}
}

func recordNotificationEnqueued(ctx context.Context, monitorService monitor.MonitorServiceInterface, notificationType data.NotificationType) {
	if monitorService == nil {
		return
	}
	if err := monitorService.MonitorCounters(monitor.NotificationsEnqueuedTag, map[string]string{"type": string(notificationType)}); err != nil {
		log.Ctx(ctx).Errorf("monitoring enqueued %s notification: %v", notificationType, err)
	}
}
