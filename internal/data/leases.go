package data

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db"
)

type PaymentFrequency string

const (
	MonthlyPaymentFrequency    PaymentFrequency = "MONTHLY"
	QuarterlyPaymentFrequency  PaymentFrequency = "QUARTERLY"
	SemiAnnualPaymentFrequency PaymentFrequency = "SEMI_ANNUAL"
	AnnualPaymentFrequency     PaymentFrequency = "ANNUAL"
)

func (pf PaymentFrequency) Validate() error {
	switch pf {
	case MonthlyPaymentFrequency, QuarterlyPaymentFrequency, SemiAnnualPaymentFrequency, AnnualPaymentFrequency:
		return nil
	default:
		return fmt.Errorf("invalid payment frequency: %s", pf)
	}
}

type MaintenanceResponsibility string

const (
	LandlordMaintenance MaintenanceResponsibility = "LANDLORD"
	TenantMaintenance   MaintenanceResponsibility = "TENANT"
	SharedMaintenance   MaintenanceResponsibility = "SHARED"
)

type Lease struct {
	ID                         string             `json:"id" db:"id"`
	LeaseNumber                string             `json:"lease_number" db:"lease_number"`
	OrganizationID             string             `json:"organization_id" db:"organization_id"`
	PropertyID                 string             `json:"property_id" db:"property_id"`
	UnitID                     string             `json:"unit_id" db:"unit_id"`
	TenantID                   string             `json:"tenant_id" db:"tenant_id"`
	PreviousLeaseID            *string            `json:"previous_lease_id,omitempty" db:"previous_lease_id"`
	StartDate                  time.Time          `json:"start_date" db:"start_date"`
	EndDate                    time.Time          `json:"end_date" db:"end_date"`
	RenewalDate                *time.Time         `json:"renewal_date,omitempty" db:"renewal_date"`
	MonthlyRent                decimal.Decimal    `json:"monthly_rent" db:"monthly_rent"`
	AnnualRent                 decimal.Decimal    `json:"annual_rent" db:"annual_rent"`
	SecurityDeposit            decimal.Decimal    `json:"security_deposit" db:"security_deposit"`
	PaymentFrequency           PaymentFrequency   `json:"payment_frequency" db:"payment_frequency"`
	PaymentDueDay              int                `json:"payment_due_day" db:"payment_due_day"`
	LateFeePercent             decimal.Decimal    `json:"late_fee_percent" db:"late_fee_percent"`
	GracePeriodDays            int                `json:"grace_period_days" db:"grace_period_days"`
	Status                     LeaseStatus        `json:"status" db:"status"`
	StatusHistory              LeaseStatusHistory `json:"status_history" db:"status_history"`
	TenantSnapshot             TenantSnapshot     `json:"tenant_snapshot" db:"tenant_snapshot"`
	Terms                      LeaseTerms         `json:"terms" db:"terms"`
	AutoRenew                  bool               `json:"auto_renew" db:"auto_renew"`
	RenewalReminderSent        bool               `json:"renewal_reminder_sent" db:"renewal_reminder_sent"`
	RenewalAttemptedAt         *time.Time         `json:"renewal_attempted_at,omitempty" db:"renewal_attempted_at"`
	NotificationThresholdsSent pq.Int64Array      `json:"notification_thresholds_sent" db:"notification_thresholds_sent"`
	Termination                *LeaseTermination  `json:"termination,omitempty" db:"termination"`
	CreatedBy                  string             `json:"created_by" db:"created_by"`
	CreatedAt                  time.Time          `json:"created_at" db:"created_at"`
	UpdatedBy                  string             `json:"updated_by" db:"updated_by"`
	UpdatedAt                  time.Time          `json:"updated_at" db:"updated_at"`
}

// HasSentThreshold reports whether an expiry reminder was already recorded for the given day-threshold.
func (l *Lease) HasSentThreshold(days int) bool {
	for _, sent := range l.NotificationThresholdsSent {
		if sent == int64(days) {
			return true
		}
	}
	return false
}

type LeaseStatusHistoryEntry struct {
	Status    LeaseStatus `json:"status"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
}

type LeaseStatusHistory []LeaseStatusHistoryEntry

func (h LeaseStatusHistory) Value() (driver.Value, error) {
	if h == nil {
		h = LeaseStatusHistory{}
	}
	return jsonbValue(h, "status_history")
}

func (h *LeaseStatusHistory) Scan(src interface{}) error {
	return scanJSONB(src, h, "status_history")
}

// TenantSnapshot is the renter identity captured when the lease is created. Later edits to the renter profile do
// not change it.
type TenantSnapshot struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	NationalID  string    `json:"national_id"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CapturedAt  time.Time `json:"captured_at"`
}

func (ts TenantSnapshot) Value() (driver.Value, error) {
	return jsonbValue(ts, "tenant_snapshot")
}

func (ts *TenantSnapshot) Scan(src interface{}) error {
	return scanJSONB(src, ts, "tenant_snapshot")
}

type LeaseTerms struct {
	PetsAllowed               bool                      `json:"pets_allowed"`
	OccupancyLimit            int                       `json:"occupancy_limit,omitempty"`
	ParkingSpaces             int                       `json:"parking_spaces,omitempty"`
	UtilitiesIncluded         []string                  `json:"utilities_included,omitempty"`
	MaintenanceResponsibility MaintenanceResponsibility `json:"maintenance_responsibility,omitempty"`
	NoticePeriodDays          int                       `json:"notice_period_days,omitempty"`
	EarlyTerminationFee       *decimal.Decimal          `json:"early_termination_fee,omitempty"`
}

func (lt LeaseTerms) Value() (driver.Value, error) {
	return jsonbValue(lt, "terms")
}

func (lt *LeaseTerms) Scan(src interface{}) error {
	return scanJSONB(src, lt, "terms")
}

type LeaseTermination struct {
	TerminationDate     time.Time        `json:"termination_date"`
	Reason              string           `json:"reason"`
	EarlyTerminationFee *decimal.Decimal `json:"early_termination_fee,omitempty"`
	TerminatedBy        string           `json:"terminated_by"`
	TerminatedAt        time.Time        `json:"terminated_at"`
}

func (lt LeaseTermination) Value() (driver.Value, error) {
	return jsonbValue(lt, "termination")
}

func (lt *LeaseTermination) Scan(src interface{}) error {
	return scanJSONB(src, lt, "termination")
}

type LeaseInsert struct {
	LeaseNumber      string
	OrganizationID   string
	PropertyID       string
	UnitID           string
	TenantID         string
	PreviousLeaseID  *string
	StartDate        time.Time
	EndDate          time.Time
	MonthlyRent      decimal.Decimal
	SecurityDeposit  decimal.Decimal
	PaymentFrequency PaymentFrequency
	PaymentDueDay    int
	LateFeePercent   decimal.Decimal
	GracePeriodDays  int
	TenantSnapshot   TenantSnapshot
	Terms            LeaseTerms
	AutoRenew        bool
	CreatedBy        string
}

// LeaseStatusUpdate describes a guarded status transition: it only applies while the lease is still in FromStatus.
type LeaseStatusUpdate struct {
	LeaseID     string
	FromStatus  LeaseStatus
	ToStatus    LeaseStatus
	UserID      string
	RenewalDate *time.Time
	Termination *LeaseTermination
}

// OverlapQuery is a candidate occupancy of a unit. ExcludeLeaseID, when set, is left out of the comparison.
type OverlapQuery struct {
	OrganizationID string
	UnitID         string
	StartDate      time.Time
	EndDate        time.Time
	ExcludeLeaseID string
}

type LeaseModel struct {
	dbConnectionPool db.DBConnectionPool
}

const leaseColumns = `
	id, lease_number, organization_id, property_id, unit_id, tenant_id, previous_lease_id,
	start_date, end_date, renewal_date,
	monthly_rent, annual_rent, security_deposit, payment_frequency, payment_due_day, late_fee_percent, grace_period_days,
	status, status_history, tenant_snapshot, terms,
	auto_renew, renewal_reminder_sent, renewal_attempted_at, notification_thresholds_sent,
	termination, created_by, created_at, updated_by, updated_at
`

const selectLeaseQuery = "SELECT " + leaseColumns + " FROM leases"

// Insert persists a new lease in DRAFT. The annual rent is computed by the database from the monthly rent.
func (m *LeaseModel) Insert(ctx context.Context, sqlExec db.SQLExecuter, insert LeaseInsert) (*Lease, error) {
	const query = `
		INSERT INTO leases
			(
				id, lease_number, organization_id, property_id, unit_id, tenant_id, previous_lease_id,
				start_date, end_date, monthly_rent, security_deposit, payment_frequency, payment_due_day,
				late_fee_percent, grace_period_days, status, status_history, tenant_snapshot, terms,
				auto_renew, created_by, updated_by
			)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8::date, $9::date, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING
	` + leaseColumns

	statusHistory := LeaseStatusHistory{
		{Status: DraftLeaseStatus, UserID: insert.CreatedBy, Timestamp: time.Now().UTC()},
	}

	var lease Lease
	err := sqlExec.GetContext(ctx, &lease, query,
		uuid.NewString(),
		insert.LeaseNumber,
		insert.OrganizationID,
		insert.PropertyID,
		insert.UnitID,
		insert.TenantID,
		insert.PreviousLeaseID,
		SQLDate(insert.StartDate),
		SQLDate(insert.EndDate),
		insert.MonthlyRent,
		insert.SecurityDeposit,
		insert.PaymentFrequency,
		insert.PaymentDueDay,
		insert.LateFeePercent,
		insert.GracePeriodDays,
		DraftLeaseStatus,
		statusHistory,
		insert.TenantSnapshot,
		insert.Terms,
		insert.AutoRenew,
		insert.CreatedBy,
		insert.CreatedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrRecordAlreadyExists
		}
		return nil, fmt.Errorf("inserting lease %s: %w", insert.LeaseNumber, err)
	}

	return &lease, nil
}

// Get returns the lease with the given ID within the organization.
func (m *LeaseModel) Get(ctx context.Context, sqlExec db.SQLExecuter, organizationID, id string) (*Lease, error) {
	query := selectLeaseQuery + " WHERE organization_id = $1 AND id = $2"

	var lease Lease
	err := sqlExec.GetContext(ctx, &lease, query, organizationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying lease ID %s: %w", id, err)
	}

	return &lease, nil
}

// GetAllByProperty returns the leases of a property, newest start date first. When statuses is empty every status
// is returned.
func (m *LeaseModel) GetAllByProperty(ctx context.Context, sqlExec db.SQLExecuter, organizationID, propertyID string, statuses []LeaseStatus) ([]*Lease, error) {
	query := selectLeaseQuery + " WHERE organization_id = $1 AND property_id = $2"
	args := []interface{}{organizationID, propertyID}
	if len(statuses) > 0 {
		query += " AND status = ANY($3)"
		args = append(args, pq.Array(statuses))
	}
	query += " ORDER BY start_date DESC, created_at DESC"

	leases := []*Lease{}
	if err := sqlExec.SelectContext(ctx, &leases, query, args...); err != nil {
		return nil, fmt.Errorf("querying leases of property %s: %w", propertyID, err)
	}
	return leases, nil
}

// GetActiveEndingBetween returns ACTIVE leases whose end date falls in [from, to], soonest first.
func (m *LeaseModel) GetActiveEndingBetween(ctx context.Context, sqlExec db.SQLExecuter, organizationID string, from, to time.Time) ([]*Lease, error) {
	query := selectLeaseQuery + `
		WHERE organization_id = $1
			AND status = $2
			AND end_date BETWEEN $3::date AND $4::date
		ORDER BY end_date ASC, lease_number ASC
	`

	leases := []*Lease{}
	err := sqlExec.SelectContext(ctx, &leases, query, organizationID, ActiveLeaseStatus, SQLDate(from), SQLDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying leases ending between %s and %s: %w", SQLDate(from), SQLDate(to), err)
	}
	return leases, nil
}

// GetPendingExpiryReminders returns ACTIVE leases ending exactly on endDate that have not yet been sent the reminder
// for the given day-threshold.
func (m *LeaseModel) GetPendingExpiryReminders(ctx context.Context, sqlExec db.SQLExecuter, organizationID string, endDate time.Time, thresholdDays int) ([]*Lease, error) {
	query := selectLeaseQuery + `
		WHERE organization_id = $1
			AND status = $2
			AND end_date = $3::date
			AND NOT ($4::integer = ANY(notification_thresholds_sent))
		ORDER BY lease_number ASC
	`

	leases := []*Lease{}
	err := sqlExec.SelectContext(ctx, &leases, query, organizationID, ActiveLeaseStatus, SQLDate(endDate), thresholdDays)
	if err != nil {
		return nil, fmt.Errorf("querying leases pending the %d days reminder: %w", thresholdDays, err)
	}
	return leases, nil
}

// GetAutoRenewalCandidates returns unclaimed ACTIVE auto-renew leases whose end date falls in [from, to].
func (m *LeaseModel) GetAutoRenewalCandidates(ctx context.Context, sqlExec db.SQLExecuter, organizationID string, from, to time.Time) ([]*Lease, error) {
	query := selectLeaseQuery + `
		WHERE organization_id = $1
			AND status = $2
			AND auto_renew = true
			AND renewal_reminder_sent = false
			AND end_date BETWEEN $3::date AND $4::date
		ORDER BY end_date ASC, lease_number ASC
	`

	leases := []*Lease{}
	err := sqlExec.SelectContext(ctx, &leases, query, organizationID, ActiveLeaseStatus, SQLDate(from), SQLDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying auto-renewal candidates: %w", err)
	}
	return leases, nil
}

// HasOverlap reports whether an ACTIVE or PENDING_APPROVAL lease of the unit intersects the candidate date range.
func (m *LeaseModel) HasOverlap(ctx context.Context, sqlExec db.SQLExecuter, q OverlapQuery) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM leases
			WHERE organization_id = $1
				AND unit_id = $2
				AND status = ANY($3)
				AND start_date <= $4::date
				AND end_date >= $5::date
				AND ($6::uuid IS NULL OR id <> $6::uuid)
		)
	`

	excludeID := sql.NullString{String: q.ExcludeLeaseID, Valid: q.ExcludeLeaseID != ""}

	var exists bool
	err := sqlExec.GetContext(ctx, &exists, query,
		q.OrganizationID,
		q.UnitID,
		pq.Array(OccupyingLeaseStatuses),
		SQLDate(q.EndDate),
		SQLDate(q.StartDate),
		excludeID,
	)
	if err != nil {
		return false, fmt.Errorf("checking overlapping leases for unit %s: %w", q.UnitID, err)
	}
	return exists, nil
}

// UpdateStatus applies a guarded status transition and appends it to the status history. It returns
// ErrConcurrentModification when the lease is no longer in update.FromStatus.
func (m *LeaseModel) UpdateStatus(ctx context.Context, sqlExec db.SQLExecuter, update LeaseStatusUpdate) (*Lease, error) {
	if err := update.FromStatus.TransitionTo(update.ToStatus); err != nil {
		return nil, fmt.Errorf("updating lease %s: %w", update.LeaseID, err)
	}

	query := `
		UPDATE
			leases
		SET
			status = $1,
			updated_by = $2,
			status_history = status_history || jsonb_build_array(
				jsonb_build_object('status', $3::text, 'user_id', $4::text, 'timestamp', NOW())
			),
			renewal_date = COALESCE($5::timestamptz, renewal_date),
			termination = COALESCE($6::jsonb, termination)
		WHERE
			id = $7 AND status = $8
		RETURNING
	` + leaseColumns

	var lease Lease
	err := sqlExec.GetContext(ctx, &lease, query,
		update.ToStatus,
		update.UserID,
		string(update.ToStatus),
		update.UserID,
		update.RenewalDate,
		update.Termination,
		update.LeaseID,
		update.FromStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Ctx(ctx).Warnf("Lease %s was not in status %s, status not set to %s", update.LeaseID, update.FromStatus, update.ToStatus)
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("updating lease %s status from %s to %s: %w", update.LeaseID, update.FromStatus, update.ToStatus, err)
	}

	log.Ctx(ctx).Infof("Set lease %s status from %s to %s", update.LeaseID, update.FromStatus, update.ToStatus)
	return &lease, nil
}

// AddNotificationThreshold records that the reminder for thresholdDays was sent. It reports false, without error,
// when the threshold was already recorded or the lease is no longer ACTIVE.
func (m *LeaseModel) AddNotificationThreshold(ctx context.Context, sqlExec db.SQLExecuter, leaseID string, thresholdDays int) (bool, error) {
	const query = `
		UPDATE
			leases
		SET
			notification_thresholds_sent = array_append(notification_thresholds_sent, $1::integer)
		WHERE
			id = $2
			AND status = $3
			AND NOT ($4::integer = ANY(notification_thresholds_sent))
	`

	return execGuarded(ctx, sqlExec, fmt.Sprintf("recording the %d days reminder of lease %s", thresholdDays, leaseID),
		query, thresholdDays, leaseID, ActiveLeaseStatus, thresholdDays)
}

// ClaimAutoRenewal marks the lease as taken by an auto-renewal run. It reports false when another run already
// holds the claim.
func (m *LeaseModel) ClaimAutoRenewal(ctx context.Context, sqlExec db.SQLExecuter, leaseID string) (bool, error) {
	const query = `
		UPDATE
			leases
		SET
			renewal_reminder_sent = true,
			renewal_attempted_at = NOW()
		WHERE
			id = $1
			AND status = $2
			AND renewal_reminder_sent = false
	`

	return execGuarded(ctx, sqlExec, fmt.Sprintf("claiming auto-renewal of lease %s", leaseID), query, leaseID, ActiveLeaseStatus)
}

// ReleaseAutoRenewalClaim makes the lease eligible for the next auto-renewal run again.
func (m *LeaseModel) ReleaseAutoRenewalClaim(ctx context.Context, sqlExec db.SQLExecuter, leaseID string) (bool, error) {
	const query = `
		UPDATE
			leases
		SET
			renewal_reminder_sent = false,
			renewal_attempted_at = NULL
		WHERE
			id = $1
			AND renewal_reminder_sent = true
	`

	return execGuarded(ctx, sqlExec, fmt.Sprintf("releasing auto-renewal claim of lease %s", leaseID), query, leaseID)
}

// execGuarded runs a conditional single-row update and reports whether it matched.
func execGuarded(ctx context.Context, sqlExec db.SQLExecuter, description, query string, args ...interface{}) (bool, error) {
	result, err := sqlExec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", description, err)
	}

	numRowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting number of rows affected when %s: %w", description, err)
	}

	switch numRowsAffected {
	case 0:
		log.Ctx(ctx).Debugf("Guard not satisfied when %s", description)
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected number of rows affected: %d when %s", numRowsAffected, description)
	}
}
