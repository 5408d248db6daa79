package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
)

const (
	complianceRegistrationAttempts = 3
	complianceRegistrationDelay    = 500 * time.Millisecond
)

const (
	createTransition    = "create"
	activateTransition  = "activate"
	renewTransition     = "renew"
	terminateTransition = "terminate"
)

type LeaseLifecycleServiceInterface interface {
	CreateLease(ctx context.Context, req CreateLeaseRequest) (*data.Lease, error)
	ActivateLease(ctx context.Context, organizationID, leaseID string) (*data.Lease, error)
	RenewLease(ctx context.Context, req RenewLeaseRequest) (*RenewLeaseResult, error)
	TerminateLease(ctx context.Context, req TerminateLeaseRequest) (*TerminateLeaseResult, error)
	GetLeaseByID(ctx context.Context, organizationID, leaseID string) (*data.Lease, error)
	GetLeasesByProperty(ctx context.Context, organizationID, propertyID string, statuses []data.LeaseStatus) ([]*data.Lease, error)
	GetExpiringLeases(ctx context.Context, organizationID string, withinDays int) ([]*data.Lease, error)
}

var _ LeaseLifecycleServiceInterface = (*LeaseLifecycleService)(nil)

type LeaseLifecycleServiceOptions struct {
	Models             *data.Models
	ComplianceClient   ComplianceRegistrationClient
	CrashTrackerClient crashtracker.CrashTrackerClient
	MonitorService     monitor.MonitorServiceInterface
	// Now is the clock used for lease numbers, successor start dates and termination defaults. Defaults to time.Now.
	Now func() time.Time
}

func (o LeaseLifecycleServiceOptions) Validate() error {
	if o.Models == nil {
		return errors.New("models cannot be nil")
	}
	if o.Models.DBConnectionPool == nil {
		return errors.New("models DB connection pool cannot be nil")
	}
	return nil
}

// LeaseLifecycleService creates, activates, renews and terminates leases. Every status change is a guarded write that
// fails with a CONCURRENT_MODIFICATION error when another caller changed the lease first.
type LeaseLifecycleService struct {
	models             *data.Models
	complianceClient   ComplianceRegistrationClient
	crashTrackerClient crashtracker.CrashTrackerClient
	monitorService     monitor.MonitorServiceInterface
	now                func() time.Time
}

func NewLeaseLifecycleService(opts LeaseLifecycleServiceOptions) (*LeaseLifecycleService, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating lease lifecycle service options: %w", err)
	}

	s := &LeaseLifecycleService{
		models:             opts.Models,
		complianceClient:   opts.ComplianceClient,
		crashTrackerClient: opts.CrashTrackerClient,
		monitorService:     opts.MonitorService,
		now:                opts.Now,
	}
	if s.complianceClient == nil {
		s.complianceClient = noopComplianceRegistrationClient{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CreateLeaseRequest describes a new lease. ExcludeLeaseID leaves one lease out of the unit availability checks and
// is set when a successor is created for the lease it replaces.
type CreateLeaseRequest struct {
	OrganizationID   string
	PropertyID       string
	UnitID           string
	TenantID         string
	StartDate        time.Time
	EndDate          time.Time
	MonthlyRent      decimal.Decimal
	SecurityDeposit  *decimal.Decimal
	PaymentFrequency data.PaymentFrequency
	PaymentDueDay    int
	LateFeePercent   *decimal.Decimal
	GracePeriodDays  int
	Terms            data.LeaseTerms
	AutoRenew        bool
	ExcludeLeaseID   string
	PreviousLeaseID  string
}

var (
	hundred = decimal.NewFromInt(100)
	// maxAmount is the largest value the NUMERIC(14,2) money columns hold.
	maxAmount = decimal.RequireFromString("999999999999.99")
)

// checkAmount rejects money amounts the database would round or overflow.
func checkAmount(v *Validator, amount decimal.Decimal, key string) {
	v.Check(amount.Equal(amount.Round(2)), key, key+" cannot have more than 2 decimal places")
	v.Check(amount.LessThanOrEqual(maxAmount), key, key+" cannot exceed "+maxAmount.StringFixed(2))
}

func (r CreateLeaseRequest) validateTerms(v *Validator) {
	v.Check(r.Terms.OccupancyLimit >= 0, "terms.occupancy_limit", "terms.occupancy_limit cannot be negative")
	v.Check(r.Terms.ParkingSpaces >= 0, "terms.parking_spaces", "terms.parking_spaces cannot be negative")
	v.Check(r.Terms.NoticePeriodDays >= 0, "terms.notice_period_days", "terms.notice_period_days cannot be negative")
	if fee := r.Terms.EarlyTerminationFee; fee != nil {
		v.Check(!fee.IsNegative(), "terms.early_termination_fee", "terms.early_termination_fee cannot be negative")
		checkAmount(v, *fee, "terms.early_termination_fee")
	}
}

func (r CreateLeaseRequest) validate() error {
	v := NewValidator()
	v.CheckID(r.OrganizationID, "organization_id")
	v.CheckID(r.PropertyID, "property_id")
	v.CheckID(r.UnitID, "unit_id")
	v.CheckID(r.TenantID, "tenant_id")

	v.Check(r.MonthlyRent.IsPositive(), "monthly_rent", "monthly_rent must be greater than zero")
	checkAmount(v, r.MonthlyRent, "monthly_rent")
	if r.SecurityDeposit != nil {
		v.Check(!r.SecurityDeposit.IsNegative(), "security_deposit", "security_deposit cannot be negative")
		checkAmount(v, *r.SecurityDeposit, "security_deposit")
	}
	if r.LateFeePercent != nil {
		v.Check(!r.LateFeePercent.IsNegative() && r.LateFeePercent.LessThanOrEqual(hundred), "late_fee_percent", "late_fee_percent must be between 0 and 100")
		v.Check(r.LateFeePercent.Equal(r.LateFeePercent.Round(2)), "late_fee_percent", "late_fee_percent cannot have more than 2 decimal places")
	}
	v.Check(r.PaymentDueDay >= 1 && r.PaymentDueDay <= 28, "payment_due_day", "payment_due_day must be between 1 and 28")
	v.Check(r.GracePeriodDays >= 0, "grace_period_days", "grace_period_days cannot be negative")
	if r.PaymentFrequency != "" {
		if err := r.PaymentFrequency.Validate(); err != nil {
			v.AddError("payment_frequency", err.Error())
		}
	}
	r.validateTerms(v)

	v.Check(!r.StartDate.IsZero(), "start_date", "start_date is required")
	v.Check(!r.EndDate.IsZero(), "end_date", "end_date is required")
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() {
		v.Check(dateOf(r.StartDate).Before(dateOf(r.EndDate)), "end_date", "end_date must be after start_date")
	}

	if r.ExcludeLeaseID != "" {
		v.CheckID(r.ExcludeLeaseID, "exclude_lease_id")
	}
	if r.PreviousLeaseID != "" {
		v.CheckID(r.PreviousLeaseID, "previous_lease_id")
	}

	return v.ValidationError("invalid lease")
}

// CreateLease validates the request and persists a DRAFT lease with the next lease number of the organization.
func (s *LeaseLifecycleService) CreateLease(ctx context.Context, req CreateLeaseRequest) (lease *data.Lease, err error) {
	defer func() { s.recordTransition(ctx, createTransition, err) }()

	lease, err = db.RunInTransactionWithResult(ctx, s.models.DBConnectionPool, nil, func(dbTx db.DBTransaction) (*data.Lease, error) {
		return s.createLease(ctx, dbTx, req)
	})
	if err != nil {
		return nil, finalizeError(err, "creating lease")
	}
	return lease, nil
}

// CreateLeaseInTransaction is CreateLease running inside the caller's transaction.
func (s *LeaseLifecycleService) CreateLeaseInTransaction(ctx context.Context, dbTx db.DBTransaction, req CreateLeaseRequest) (*data.Lease, error) {
	return s.createLease(ctx, dbTx, req)
}

func (s *LeaseLifecycleService) createLease(ctx context.Context, dbTx db.DBTransaction, req CreateLeaseRequest) (*data.Lease, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	unit, err := s.models.Units.Get(ctx, dbTx, req.OrganizationID, req.UnitID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting unit %s", req.UnitID))
	}
	if unit.PropertyID != req.PropertyID {
		return nil, NewNotFoundError(fmt.Sprintf("unit %s does not belong to property %s", req.UnitID, req.PropertyID), nil)
	}
	if unit.IsOccupiedByOtherThan(req.ExcludeLeaseID) {
		return nil, NewConflictError(fmt.Sprintf("unit %s is already occupied", req.UnitID), nil)
	}

	tenant, err := s.models.Tenants.Get(ctx, dbTx, req.OrganizationID, req.TenantID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting tenant %s", req.TenantID))
	}

	err = validateNoOverlap(ctx, s.models.Leases, dbTx, data.OverlapQuery{
		OrganizationID: req.OrganizationID,
		UnitID:         req.UnitID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ExcludeLeaseID: req.ExcludeLeaseID,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	seq, err := s.models.LeaseNumbers.Next(ctx, dbTx, req.OrganizationID, now.Year())
	if err != nil {
		return nil, fmt.Errorf("generating lease number: %w", err)
	}

	insert := data.LeaseInsert{
		LeaseNumber:      data.FormatLeaseNumber(now.Year(), seq),
		OrganizationID:   req.OrganizationID,
		PropertyID:       req.PropertyID,
		UnitID:           req.UnitID,
		TenantID:         req.TenantID,
		StartDate:        dateOf(req.StartDate),
		EndDate:          dateOf(req.EndDate),
		MonthlyRent:      req.MonthlyRent,
		SecurityDeposit:  decimal.Zero,
		PaymentFrequency: req.PaymentFrequency,
		PaymentDueDay:    req.PaymentDueDay,
		LateFeePercent:   decimal.Zero,
		GracePeriodDays:  req.GracePeriodDays,
		TenantSnapshot:   tenant.Snapshot(now),
		Terms:            req.Terms,
		AutoRenew:        req.AutoRenew,
		CreatedBy:        appcontext.GetActorFromContext(ctx),
	}
	if req.SecurityDeposit != nil {
		insert.SecurityDeposit = *req.SecurityDeposit
	}
	if req.LateFeePercent != nil {
		insert.LateFeePercent = *req.LateFeePercent
	}
	if insert.PaymentFrequency == "" {
		insert.PaymentFrequency = data.MonthlyPaymentFrequency
	}
	if req.PreviousLeaseID != "" {
		insert.PreviousLeaseID = &req.PreviousLeaseID
	}

	lease, err := s.models.Leases.Insert(ctx, dbTx, insert)
	if err != nil {
		if errors.Is(err, data.ErrRecordAlreadyExists) {
			return nil, NewConflictError(fmt.Sprintf("lease number %s is already taken", insert.LeaseNumber), err)
		}
		return nil, fmt.Errorf("inserting lease: %w", err)
	}

	log.Ctx(ctx).Infof("Created lease %s (%s) for unit %s", lease.ID, lease.LeaseNumber, lease.UnitID)
	return lease, nil
}

// ActivateLease moves a DRAFT or PENDING_APPROVAL lease to ACTIVE and marks its unit occupied. Once committed, the
// lease is submitted to the compliance registry; registration failures do not undo the activation.
func (s *LeaseLifecycleService) ActivateLease(ctx context.Context, organizationID, leaseID string) (activated *data.Lease, err error) {
	defer func() { s.recordTransition(ctx, activateTransition, err) }()

	if err = validateLeaseRef(organizationID, leaseID); err != nil {
		return nil, err
	}

	err = db.RunInTransactionWithPostCommit(ctx, &db.TransactionOptions{
		DBConnectionPool: s.models.DBConnectionPool,
		AtomicFunctionWithPostCommit: func(dbTx db.DBTransaction) (db.PostCommitFunction, error) {
			lease, txErr := s.activateLease(ctx, dbTx, organizationID, leaseID, "")
			if txErr != nil {
				return nil, txErr
			}
			activated = lease
			return func() error {
				s.registerWithCompliance(ctx, lease)
				return nil
			}, nil
		},
	})
	if err != nil {
		return nil, finalizeError(err, fmt.Sprintf("activating lease %s", leaseID))
	}
	return activated, nil
}

// ActivateLeaseInTransaction is ActivateLease running inside the caller's transaction. replacedLeaseID, when set, is
// the lease whose unit occupancy the activated lease takes over. Compliance registration is left to the caller.
func (s *LeaseLifecycleService) ActivateLeaseInTransaction(ctx context.Context, dbTx db.DBTransaction, organizationID, leaseID, replacedLeaseID string) (*data.Lease, error) {
	if err := validateLeaseRef(organizationID, leaseID); err != nil {
		return nil, err
	}
	return s.activateLease(ctx, dbTx, organizationID, leaseID, replacedLeaseID)
}

func (s *LeaseLifecycleService) activateLease(ctx context.Context, dbTx db.DBTransaction, organizationID, leaseID, replacedLeaseID string) (*data.Lease, error) {
	lease, err := s.models.Leases.Get(ctx, dbTx, organizationID, leaseID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting lease %s", leaseID))
	}
	if lease.Status == data.ActiveLeaseStatus {
		return nil, s.alreadyActiveError(ctx, dbTx, lease)
	}
	if err = lease.Status.TransitionTo(data.ActiveLeaseStatus); err != nil {
		return nil, NewInvalidStateTransitionError(fmt.Sprintf("lease %s cannot be activated", leaseID), err)
	}

	err = validateNoOverlap(ctx, s.models.Leases, dbTx, data.OverlapQuery{
		OrganizationID: organizationID,
		UnitID:         lease.UnitID,
		StartDate:      lease.StartDate,
		EndDate:        lease.EndDate,
		ExcludeLeaseID: lease.ID,
	})
	if err != nil {
		return nil, err
	}

	activated, err := s.models.Leases.UpdateStatus(ctx, dbTx, data.LeaseStatusUpdate{
		LeaseID:    lease.ID,
		FromStatus: lease.Status,
		ToStatus:   data.ActiveLeaseStatus,
		UserID:     appcontext.GetActorFromContext(ctx),
	})
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("activating lease %s", leaseID))
	}

	err = s.models.Units.Occupy(ctx, dbTx, lease.UnitID, lease.TenantID, lease.ID, replacedLeaseID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("occupying unit %s", lease.UnitID))
	}

	return activated, nil
}

// alreadyActiveError reports an activation racing one that already committed as a concurrent modification. A lease
// that is ACTIVE without holding its unit gets INVALID_STATE_TRANSITION.
func (s *LeaseLifecycleService) alreadyActiveError(ctx context.Context, dbTx db.DBTransaction, lease *data.Lease) error {
	unit, err := s.models.Units.Get(ctx, dbTx, lease.OrganizationID, lease.UnitID)
	if err != nil {
		return translateDataError(err, fmt.Sprintf("getting unit %s", lease.UnitID))
	}
	if unit.CurrentLeaseID != nil && *unit.CurrentLeaseID == lease.ID {
		return NewConcurrentModificationError(fmt.Sprintf("lease %s was activated by another request", lease.ID), nil)
	}
	return NewInvalidStateTransitionError(fmt.Sprintf("lease %s cannot be activated", lease.ID),
		lease.Status.TransitionTo(data.ActiveLeaseStatus))
}

type RenewLeaseRequest struct {
	OrganizationID string
	LeaseID        string
	NewEndDate     time.Time
	NewMonthlyRent decimal.Decimal
}

func (r RenewLeaseRequest) validate() error {
	v := NewValidator()
	v.CheckID(r.OrganizationID, "organization_id")
	v.CheckID(r.LeaseID, "lease_id")
	v.Check(!r.NewEndDate.IsZero(), "new_end_date", "new_end_date is required")
	v.Check(r.NewMonthlyRent.IsPositive(), "new_monthly_rent", "new_monthly_rent must be greater than zero")
	checkAmount(v, r.NewMonthlyRent, "new_monthly_rent")
	return v.ValidationError("invalid lease renewal")
}

type RenewLeaseResult struct {
	Predecessor *data.Lease
	Successor   *data.Lease
}

// RenewLease replaces an ACTIVE lease with an ACTIVE successor in one transaction. The successor is created before
// the predecessor is marked RENEWED, so a failure at any step leaves the original lease active.
func (s *LeaseLifecycleService) RenewLease(ctx context.Context, req RenewLeaseRequest) (result *RenewLeaseResult, err error) {
	defer func() { s.recordTransition(ctx, renewTransition, err) }()

	err = db.RunInTransactionWithPostCommit(ctx, &db.TransactionOptions{
		DBConnectionPool: s.models.DBConnectionPool,
		AtomicFunctionWithPostCommit: func(dbTx db.DBTransaction) (db.PostCommitFunction, error) {
			renewal, txErr := s.RenewLeaseInTransaction(ctx, dbTx, req)
			if txErr != nil {
				return nil, txErr
			}
			result = renewal
			return func() error {
				s.registerWithCompliance(ctx, renewal.Successor)
				return nil
			}, nil
		},
	})
	if err != nil {
		return nil, finalizeError(err, fmt.Sprintf("renewing lease %s", req.LeaseID))
	}
	return result, nil
}

// RenewLeaseInTransaction is RenewLease running inside the caller's transaction. Compliance registration of the
// successor is left to the caller.
func (s *LeaseLifecycleService) RenewLeaseInTransaction(ctx context.Context, dbTx db.DBTransaction, req RenewLeaseRequest) (*RenewLeaseResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	predecessor, err := s.models.Leases.Get(ctx, dbTx, req.OrganizationID, req.LeaseID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting lease %s", req.LeaseID))
	}
	if err = predecessor.Status.TransitionTo(data.RenewedLeaseStatus); err != nil {
		return nil, NewInvalidStateTransitionError(fmt.Sprintf("lease %s cannot be renewed", req.LeaseID), err)
	}

	startDate := laterDate(dateOf(predecessor.EndDate), s.today())
	if !dateOf(req.NewEndDate).After(startDate) {
		return nil, NewValidationError("invalid lease renewal", map[string]interface{}{
			"new_end_date": fmt.Sprintf("new_end_date must be after %s", data.SQLDate(startDate)),
		})
	}

	securityDeposit := predecessor.SecurityDeposit
	lateFeePercent := predecessor.LateFeePercent
	successor, err := s.createLease(ctx, dbTx, CreateLeaseRequest{
		OrganizationID:   predecessor.OrganizationID,
		PropertyID:       predecessor.PropertyID,
		UnitID:           predecessor.UnitID,
		TenantID:         predecessor.TenantID,
		StartDate:        startDate,
		EndDate:          req.NewEndDate,
		MonthlyRent:      req.NewMonthlyRent,
		SecurityDeposit:  &securityDeposit,
		PaymentFrequency: predecessor.PaymentFrequency,
		PaymentDueDay:    predecessor.PaymentDueDay,
		LateFeePercent:   &lateFeePercent,
		GracePeriodDays:  predecessor.GracePeriodDays,
		Terms:            predecessor.Terms,
		AutoRenew:        predecessor.AutoRenew,
		ExcludeLeaseID:   predecessor.ID,
		PreviousLeaseID:  predecessor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating successor of lease %s: %w", predecessor.ID, err)
	}

	renewalDate := s.now().UTC()
	renewed, err := s.models.Leases.UpdateStatus(ctx, dbTx, data.LeaseStatusUpdate{
		LeaseID:     predecessor.ID,
		FromStatus:  data.ActiveLeaseStatus,
		ToStatus:    data.RenewedLeaseStatus,
		UserID:      appcontext.GetActorFromContext(ctx),
		RenewalDate: &renewalDate,
	})
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("renewing lease %s", predecessor.ID))
	}

	activated, err := s.activateLease(ctx, dbTx, predecessor.OrganizationID, successor.ID, predecessor.ID)
	if err != nil {
		return nil, fmt.Errorf("activating successor %s of lease %s: %w", successor.ID, predecessor.ID, err)
	}

	log.Ctx(ctx).Infof("Renewed lease %s (%s) with %s (%s)", renewed.ID, renewed.LeaseNumber, activated.ID, activated.LeaseNumber)
	return &RenewLeaseResult{Predecessor: renewed, Successor: activated}, nil
}

type TerminateLeaseRequest struct {
	OrganizationID string
	LeaseID        string
	// TerminationDate defaults to the current day.
	TerminationDate time.Time
	Reason          string
}

func (r TerminateLeaseRequest) validate() error {
	v := NewValidator()
	v.CheckID(r.OrganizationID, "organization_id")
	v.CheckID(r.LeaseID, "lease_id")
	v.Check(r.Reason != "", "reason", "reason is required")
	return v.ValidationError("invalid lease termination")
}

type TerminateLeaseResult struct {
	Lease *data.Lease
	// EarlyTerminationFee is set when the lease ended before its end date and its terms carry a fee.
	EarlyTerminationFee *decimal.Decimal
}

// TerminateLease ends an ACTIVE lease and vacates its unit.
func (s *LeaseLifecycleService) TerminateLease(ctx context.Context, req TerminateLeaseRequest) (result *TerminateLeaseResult, err error) {
	defer func() { s.recordTransition(ctx, terminateTransition, err) }()

	result, err = db.RunInTransactionWithResult(ctx, s.models.DBConnectionPool, nil, func(dbTx db.DBTransaction) (*TerminateLeaseResult, error) {
		return s.terminateLease(ctx, dbTx, req)
	})
	if err != nil {
		return nil, finalizeError(err, fmt.Sprintf("terminating lease %s", req.LeaseID))
	}
	return result, nil
}

func (s *LeaseLifecycleService) terminateLease(ctx context.Context, dbTx db.DBTransaction, req TerminateLeaseRequest) (*TerminateLeaseResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	lease, err := s.models.Leases.Get(ctx, dbTx, req.OrganizationID, req.LeaseID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting lease %s", req.LeaseID))
	}
	if err = lease.Status.TransitionTo(data.TerminatedLeaseStatus); err != nil {
		return nil, NewInvalidStateTransitionError(fmt.Sprintf("lease %s cannot be terminated", req.LeaseID), err)
	}

	terminationDate := s.today()
	if !req.TerminationDate.IsZero() {
		terminationDate = dateOf(req.TerminationDate)
	}
	if terminationDate.Before(dateOf(lease.StartDate)) {
		return nil, NewValidationError("invalid lease termination", map[string]interface{}{
			"termination_date": fmt.Sprintf("termination_date cannot be before the lease start date %s", data.SQLDate(lease.StartDate)),
		})
	}

	var fee *decimal.Decimal
	if terminationDate.Before(dateOf(lease.EndDate)) && lease.Terms.EarlyTerminationFee != nil && lease.Terms.EarlyTerminationFee.IsPositive() {
		configured := *lease.Terms.EarlyTerminationFee
		fee = &configured
	}

	actor := appcontext.GetActorFromContext(ctx)
	terminated, err := s.models.Leases.UpdateStatus(ctx, dbTx, data.LeaseStatusUpdate{
		LeaseID:    lease.ID,
		FromStatus: data.ActiveLeaseStatus,
		ToStatus:   data.TerminatedLeaseStatus,
		UserID:     actor,
		Termination: &data.LeaseTermination{
			TerminationDate:     terminationDate,
			Reason:              req.Reason,
			EarlyTerminationFee: fee,
			TerminatedBy:        actor,
			TerminatedAt:        s.now().UTC(),
		},
	})
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("terminating lease %s", lease.ID))
	}

	if err = s.models.Units.Vacate(ctx, dbTx, lease.UnitID, lease.ID); err != nil {
		return nil, translateDataError(err, fmt.Sprintf("vacating unit %s", lease.UnitID))
	}

	return &TerminateLeaseResult{Lease: terminated, EarlyTerminationFee: fee}, nil
}

func (s *LeaseLifecycleService) GetLeaseByID(ctx context.Context, organizationID, leaseID string) (*data.Lease, error) {
	if err := validateLeaseRef(organizationID, leaseID); err != nil {
		return nil, err
	}

	lease, err := s.models.Leases.Get(ctx, s.models.DBConnectionPool, organizationID, leaseID)
	if err != nil {
		return nil, translateDataError(err, fmt.Sprintf("getting lease %s", leaseID))
	}
	return lease, nil
}

// GetLeasesByProperty returns the property's leases, newest start date first. Statuses match case-insensitively and an
// empty list returns leases in any status.
func (s *LeaseLifecycleService) GetLeasesByProperty(ctx context.Context, organizationID, propertyID string, statuses []data.LeaseStatus) ([]*data.Lease, error) {
	v := NewValidator()
	v.CheckID(organizationID, "organization_id")
	v.CheckID(propertyID, "property_id")
	normalized := make([]data.LeaseStatus, 0, len(statuses))
	for _, status := range statuses {
		leaseStatus, err := data.ToLeaseStatus(string(status))
		if err != nil {
			v.AddError("statuses", err.Error())
			continue
		}
		normalized = append(normalized, leaseStatus)
	}
	if err := v.ValidationError("invalid lease query"); err != nil {
		return nil, err
	}

	leases, err := s.models.Leases.GetAllByProperty(ctx, s.models.DBConnectionPool, organizationID, propertyID, normalized)
	if err != nil {
		return nil, fmt.Errorf("getting leases of property %s: %w", propertyID, err)
	}
	return leases, nil
}

// GetExpiringLeases returns the ACTIVE leases ending between today and withinDays from today, inclusive.
func (s *LeaseLifecycleService) GetExpiringLeases(ctx context.Context, organizationID string, withinDays int) ([]*data.Lease, error) {
	v := NewValidator()
	v.CheckID(organizationID, "organization_id")
	v.Check(withinDays > 0, "within_days", "within_days must be greater than zero")
	if err := v.ValidationError("invalid lease query"); err != nil {
		return nil, err
	}

	today := s.today()
	leases, err := s.models.Leases.GetActiveEndingBetween(ctx, s.models.DBConnectionPool, organizationID, today, today.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, fmt.Errorf("getting leases expiring within %d days: %w", withinDays, err)
	}
	return leases, nil
}

func (s *LeaseLifecycleService) registerWithCompliance(ctx context.Context, lease *data.Lease) {
	err := retry.Do(
		func() error {
			return s.complianceClient.RegisterLease(ctx, lease)
		},
		retry.Attempts(complianceRegistrationAttempts),
		retry.Delay(complianceRegistrationDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err == nil {
		return
	}

	msg := fmt.Sprintf("registering lease %s with the compliance registry", lease.ID)
	if s.crashTrackerClient != nil {
		s.crashTrackerClient.LogAndReportErrors(ctx, err, msg)
		return
	}
	log.Ctx(ctx).Errorf("%s: %v", msg, err)
}

func (s *LeaseLifecycleService) recordTransition(ctx context.Context, transition string, err error) {
	if s.monitorService == nil {
		return
	}
	labels := monitor.LeaseTransitionLabels{Transition: transition, Outcome: outcome(err)}
	if monitorErr := s.monitorService.MonitorCounters(monitor.LeaseTransitionsCounterTag, labels.ToMap()); monitorErr != nil {
		log.Ctx(ctx).Errorf("monitoring lease %s transition: %v", transition, monitorErr)
	}
}

func (s *LeaseLifecycleService) today() time.Time {
	return dateOf(s.now())
}

func validateLeaseRef(organizationID, leaseID string) error {
	v := NewValidator()
	v.CheckID(organizationID, "organization_id")
	v.CheckID(leaseID, "lease_id")
	return v.ValidationError("invalid lease reference")
}

// dateOf returns the calendar day of t in UTC, at midnight.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func laterDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
