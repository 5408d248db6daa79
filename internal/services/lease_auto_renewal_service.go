package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
)

const leaseAutoRenewalJobName = "lease_auto_renewal"

type LeaseAutoRenewalServiceInterface interface {
	ProcessAutoRenewals(ctx context.Context, req ProcessAutoRenewalsRequest) (*LeaseAutoRenewalReport, error)
}

var _ LeaseAutoRenewalServiceInterface = (*LeaseAutoRenewalService)(nil)

type ProcessAutoRenewalsRequest struct {
	OrganizationID string
	// WithinDays is how far ahead of their end date leases are renewed. Zero uses the organization's settings.
	WithinDays int
	// RentIncreasePercent applied to the renewed monthly rent. Nil uses the organization's settings.
	RentIncreasePercent *decimal.Decimal
}

type LeaseAutoRenewalReport struct {
	OrganizationID string `json:"organization_id"`
	Scanned        int    `json:"scanned"`
	Renewed        int    `json:"renewed"`
	SkippedClaimed int    `json:"skipped_claimed"`
	// SkippedConcurrent counts claimed leases that another writer changed before the renewal committed.
	SkippedConcurrent int      `json:"skipped_concurrent"`
	Failed            int      `json:"failed"`
	FailedLeaseIDs    []string `json:"failed_lease_ids,omitempty"`
}

// LeaseAutoRenewalService renews auto-renew leases nearing their end date. Each lease is claimed before it is renewed
// so concurrent runs never renew it twice. A failed or skipped renewal releases the claim, leaving the lease eligible
// for the next run.
type LeaseAutoRenewalService struct {
	models           *data.Models
	lifecycleService *LeaseLifecycleService
	monitorService   monitor.MonitorServiceInterface
	now              func() time.Time
}

func NewLeaseAutoRenewalService(models *data.Models, lifecycleService *LeaseLifecycleService, monitorService monitor.MonitorServiceInterface, now func() time.Time) (*LeaseAutoRenewalService, error) {
	if models == nil {
		return nil, errors.New("models cannot be nil")
	}
	if lifecycleService == nil {
		return nil, errors.New("lifecycle service cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	return &LeaseAutoRenewalService{
		models:           models,
		lifecycleService: lifecycleService,
		monitorService:   monitorService,
		now:              now,
	}, nil
}

func (s *LeaseAutoRenewalService) ProcessAutoRenewals(ctx context.Context, req ProcessAutoRenewalsRequest) (report *LeaseAutoRenewalReport, err error) {
	startedAt := time.Now()
	defer func() { recordJobRun(ctx, s.monitorService, leaseAutoRenewalJobName, startedAt, err) }()

	v := NewValidator()
	v.CheckID(req.OrganizationID, "organization_id")
	v.Check(req.WithinDays >= 0, "within_days", "within_days cannot be negative")
	if req.RentIncreasePercent != nil {
		v.Check(!req.RentIncreasePercent.IsNegative(), "rent_increase_percent", "rent_increase_percent cannot be negative")
	}
	if err = v.ValidationError("invalid auto-renewal request"); err != nil {
		return nil, err
	}

	withinDays, rentIncreasePercent, err := s.resolveSettings(ctx, req)
	if err != nil {
		return nil, err
	}

	today := dateOf(s.now())
	candidates, err := s.models.Leases.GetAutoRenewalCandidates(ctx, s.models.DBConnectionPool, req.OrganizationID, today, today.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, fmt.Errorf("getting auto-renewal candidates: %w", err)
	}

	report = &LeaseAutoRenewalReport{OrganizationID: req.OrganizationID, FailedLeaseIDs: []string{}}
	for _, lease := range candidates {
		report.Scanned++
		s.processCandidate(ctx, report, lease, rentIncreasePercent)
	}

	log.Ctx(ctx).Infof("Lease auto-renewals for organization %s: scanned=%d renewed=%d skipped_claimed=%d skipped_concurrent=%d failed=%d",
		report.OrganizationID, report.Scanned, report.Renewed, report.SkippedClaimed, report.SkippedConcurrent, report.Failed)
	return report, nil
}

func (s *LeaseAutoRenewalService) processCandidate(ctx context.Context, report *LeaseAutoRenewalReport, lease *data.Lease, rentIncreasePercent decimal.Decimal) {
	claimed, err := s.models.Leases.ClaimAutoRenewal(ctx, s.models.DBConnectionPool, lease.ID)
	if err != nil {
		report.Failed++
		report.FailedLeaseIDs = append(report.FailedLeaseIDs, lease.ID)
		log.Ctx(ctx).Errorf("Claiming auto-renewal of lease %s: %v", lease.ID, err)
		recordJobItem(ctx, s.monitorService, leaseAutoRenewalJobName, "failed")
		return
	}
	if !claimed {
		report.SkippedClaimed++
		recordJobItem(ctx, s.monitorService, leaseAutoRenewalJobName, "skipped_claimed")
		return
	}

	s.renewClaimed(ctx, report, lease, rentIncreasePercent)
}

// renewClaimed renews a lease this run holds the claim of, releasing the claim unless the renewal commits.
func (s *LeaseAutoRenewalService) renewClaimed(ctx context.Context, report *LeaseAutoRenewalReport, lease *data.Lease, rentIncreasePercent decimal.Decimal) {
	err := s.renew(ctx, lease, rentIncreasePercent)
	switch {
	case err == nil:
		report.Renewed++
		recordJobItem(ctx, s.monitorService, leaseAutoRenewalJobName, "renewed")
		recordNotificationEnqueued(ctx, s.monitorService, data.LeaseAutoRenewedNotificationType)
		return

	case errors.Is(err, ErrConcurrentModification):
		report.SkippedConcurrent++
		log.Ctx(ctx).Infof("Skipping auto-renewal of lease %s: %v", lease.ID, err)
		recordJobItem(ctx, s.monitorService, leaseAutoRenewalJobName, "skipped_concurrent")

	default:
		report.Failed++
		report.FailedLeaseIDs = append(report.FailedLeaseIDs, lease.ID)
		log.Ctx(ctx).Errorf("Auto-renewing lease %s: %v", lease.ID, err)
		recordJobItem(ctx, s.monitorService, leaseAutoRenewalJobName, "failed")
	}
	s.releaseClaim(ctx, lease.ID)
}

func (s *LeaseAutoRenewalService) resolveSettings(ctx context.Context, req ProcessAutoRenewalsRequest) (int, decimal.Decimal, error) {
	if req.WithinDays > 0 && req.RentIncreasePercent != nil {
		return req.WithinDays, *req.RentIncreasePercent, nil
	}

	organization, err := s.models.Organizations.Get(ctx, req.OrganizationID)
	if err != nil {
		return 0, decimal.Zero, translateDataError(err, fmt.Sprintf("getting organization %s", req.OrganizationID))
	}

	withinDays := organization.AutoRenewalWindowDays
	if req.WithinDays > 0 {
		withinDays = req.WithinDays
	}
	if withinDays <= 0 {
		withinDays = data.DefaultAutoRenewalWindowDays
	}

	rentIncreasePercent := organization.AutoRenewalRentIncreasePercent
	if req.RentIncreasePercent != nil {
		rentIncreasePercent = *req.RentIncreasePercent
	}
	return withinDays, rentIncreasePercent, nil
}

// renew replaces the lease with a one-year successor and notifies the renter, committing both together. A lease whose
// status moved away from the scanned one is reported as a concurrent modification.
func (s *LeaseAutoRenewalService) renew(ctx context.Context, lease *data.Lease, rentIncreasePercent decimal.Decimal) error {
	ctx = appcontext.SetUserIDInContext(ctx, appcontext.SystemActor)

	return db.RunInTransactionWithPostCommit(ctx, &db.TransactionOptions{
		DBConnectionPool: s.models.DBConnectionPool,
		AtomicFunctionWithPostCommit: func(dbTx db.DBTransaction) (db.PostCommitFunction, error) {
			current, err := s.models.Leases.Get(ctx, dbTx, lease.OrganizationID, lease.ID)
			if err != nil {
				return nil, translateDataError(err, fmt.Sprintf("getting lease %s", lease.ID))
			}
			if current.Status != lease.Status {
				return nil, NewConcurrentModificationError(fmt.Sprintf("lease %s moved from %s to %s since it was scanned", lease.ID, lease.Status, current.Status), nil)
			}

			result, err := s.lifecycleService.RenewLeaseInTransaction(ctx, dbTx, RenewLeaseRequest{
				OrganizationID: lease.OrganizationID,
				LeaseID:        lease.ID,
				NewEndDate:     dateOf(lease.EndDate).AddDate(1, 0, 0),
				NewMonthlyRent: IncreasedRent(lease.MonthlyRent, rentIncreasePercent),
			})
			if err != nil {
				return nil, err
			}

			_, err = s.models.Notifications.Insert(ctx, dbTx, data.NotificationInsert{
				OrganizationID: lease.OrganizationID,
				Type:           data.LeaseAutoRenewedNotificationType,
				RecipientID:    lease.TenantID,
				Data: data.NotificationData{
					"previous_lease_id":     result.Predecessor.ID,
					"previous_lease_number": result.Predecessor.LeaseNumber,
					"lease_id":              result.Successor.ID,
					"lease_number":          result.Successor.LeaseNumber,
					"monthly_rent":          result.Successor.MonthlyRent.StringFixed(2),
					"end_date":              data.SQLDate(result.Successor.EndDate),
				},
			})
			if err != nil {
				return nil, fmt.Errorf("inserting auto-renewal notification: %w", err)
			}

			return func() error {
				s.lifecycleService.registerWithCompliance(ctx, result.Successor)
				return nil
			}, nil
		},
	})
}

func (s *LeaseAutoRenewalService) releaseClaim(ctx context.Context, leaseID string) {
	released, err := s.models.Leases.ReleaseAutoRenewalClaim(ctx, s.models.DBConnectionPool, leaseID)
	if err != nil {
		log.Ctx(ctx).Errorf("Releasing auto-renewal claim of lease %s: %v", leaseID, err)
		return
	}
	if !released {
		log.Ctx(ctx).Warnf("Auto-renewal claim of lease %s was already released", leaseID)
	}
}

// IncreasedRent applies a percentage increase to a monthly rent, rounded to two decimal places.
func IncreasedRent(monthlyRent, increasePercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(increasePercent.Div(hundred))
	return monthlyRent.Mul(factor).Round(2)
}
