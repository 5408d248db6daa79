package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/db"
)

func CreateOrganizationFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, name string) *Organization {
	const query = `
		INSERT INTO organizations
			(name)
		VALUES
			($1)
		RETURNING
			id, name, expiry_notification_thresholds, auto_renewal_window_days, auto_renewal_rent_increase_percent,
			created_at, updated_at
	`

	var organization Organization
	err := sqlExec.GetContext(ctx, &organization, query, name)
	require.NoError(t, err)
	return &organization
}

func UpdateOrganizationLeaseSettingsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, organizationID string, thresholds []int64, windowDays int, rentIncreasePercent string) {
	const query = `
		UPDATE organizations
		SET expiry_notification_thresholds = $1, auto_renewal_window_days = $2, auto_renewal_rent_increase_percent = $3
		WHERE id = $4
	`
	_, err := sqlExec.ExecContext(ctx, query, pq.Int64Array(thresholds), windowDays, rentIncreasePercent, organizationID)
	require.NoError(t, err)
}

func CreatePropertyFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, organizationID, name string) string {
	var id string
	err := sqlExec.GetContext(ctx, &id, "INSERT INTO properties (organization_id, name) VALUES ($1, $2) RETURNING id", organizationID, name)
	require.NoError(t, err)
	return id
}

func CreateTenantFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, organizationID, firstName, lastName string) *Tenant {
	const query = `
		INSERT INTO tenants
			(organization_id, first_name, last_name, national_id, email, phone_number)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			id, organization_id, first_name, last_name, national_id, email, phone_number, created_at, updated_at
	`

	var tenant Tenant
	err := sqlExec.GetContext(ctx, &tenant, query,
		organizationID,
		firstName,
		lastName,
		fmt.Sprintf("NID-%s", uuid.NewString()[:8]),
		fmt.Sprintf("%s.%s@example.com", firstName, lastName),
		"+966500000000",
	)
	require.NoError(t, err)
	return &tenant
}

func CreateUnitFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, organizationID, propertyID, unitNumber string) *Unit {
	const query = `
		INSERT INTO units
			(organization_id, property_id, unit_number)
		VALUES
			($1, $2, $3)
		RETURNING
			id, organization_id, property_id, unit_number, status, current_tenant_id, current_lease_id, created_at, updated_at
	`

	var unit Unit
	err := sqlExec.GetContext(ctx, &unit, query, organizationID, propertyID, unitNumber)
	require.NoError(t, err)
	return &unit
}

func GetUnitFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, id string) *Unit {
	var unit Unit
	err := sqlExec.GetContext(ctx, &unit, selectUnitQuery+" WHERE id = $1", id)
	require.NoError(t, err)
	return &unit
}

// LeaseFixture holds the records a lease references.
type LeaseFixture struct {
	Organization *Organization
	PropertyID   string
	Unit         *Unit
	Tenant       *Tenant
}

// CreateLeaseScopeFixture creates an organization with one property, one vacant unit and one renter.
func CreateLeaseScopeFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter) LeaseFixture {
	organization := CreateOrganizationFixture(t, ctx, sqlExec, "org-"+uuid.NewString()[:8])
	propertyID := CreatePropertyFixture(t, ctx, sqlExec, organization.ID, "Olaya Towers")
	return LeaseFixture{
		Organization: organization,
		PropertyID:   propertyID,
		Unit:         CreateUnitFixture(t, ctx, sqlExec, organization.ID, propertyID, "A-101"),
		Tenant:       CreateTenantFixture(t, ctx, sqlExec, organization.ID, "Sara", "Alharbi"),
	}
}

// CreateLeaseFixture inserts a lease for the fixture scope and, when status is not DRAFT, moves it to that status.
// ACTIVE leases also occupy the unit.
func CreateLeaseFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, scope LeaseFixture, status LeaseStatus, startDate, endDate time.Time, monthlyRent string) *Lease {
	leaseModel := &LeaseModel{}

	lease, err := leaseModel.Insert(ctx, sqlExec, LeaseInsert{
		LeaseNumber:      "LSE-FIX-" + uuid.NewString()[:8],
		OrganizationID:   scope.Organization.ID,
		PropertyID:       scope.PropertyID,
		UnitID:           scope.Unit.ID,
		TenantID:         scope.Tenant.ID,
		StartDate:        startDate,
		EndDate:          endDate,
		MonthlyRent:      decimal.RequireFromString(monthlyRent),
		SecurityDeposit:  decimal.Zero,
		PaymentFrequency: MonthlyPaymentFrequency,
		PaymentDueDay:    1,
		LateFeePercent:   decimal.Zero,
		TenantSnapshot:   scope.Tenant.Snapshot(time.Now()),
		CreatedBy:        "fixture",
	})
	require.NoError(t, err)

	if status == DraftLeaseStatus {
		return lease
	}

	// fixtures may be created directly in any status
	const query = "UPDATE leases SET status = $1, termination = $2 WHERE id = $3 RETURNING " + leaseColumns
	var termination *LeaseTermination
	if status == TerminatedLeaseStatus {
		termination = &LeaseTermination{TerminationDate: endDate, Reason: "fixture", TerminatedBy: "fixture", TerminatedAt: time.Now().UTC()}
	}
	var updated Lease
	err = sqlExec.GetContext(ctx, &updated, query, status, termination, lease.ID)
	require.NoError(t, err)

	if status == ActiveLeaseStatus {
		_, err = sqlExec.ExecContext(ctx, "UPDATE units SET status = $1, current_tenant_id = $2, current_lease_id = $3 WHERE id = $4",
			OccupiedUnitStatus, scope.Tenant.ID, lease.ID, scope.Unit.ID)
		require.NoError(t, err)
	}

	return &updated
}

func SetLeaseAutoRenewFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, leaseID string, autoRenew bool) {
	_, err := sqlExec.ExecContext(ctx, "UPDATE leases SET auto_renew = $1 WHERE id = $2", autoRenew, leaseID)
	require.NoError(t, err)
}

func SetLeaseTermsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, leaseID string, terms LeaseTerms) {
	_, err := sqlExec.ExecContext(ctx, "UPDATE leases SET terms = $1 WHERE id = $2", terms, leaseID)
	require.NoError(t, err)
}

func GetLeaseFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, id string) *Lease {
	var lease Lease
	err := sqlExec.GetContext(ctx, &lease, selectLeaseQuery+" WHERE id = $1", id)
	require.NoError(t, err)
	return &lease
}

func CountLeasesFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, unitID string) int {
	var count int
	err := sqlExec.GetContext(ctx, &count, "SELECT COUNT(*) FROM leases WHERE unit_id = $1", unitID)
	require.NoError(t, err)
	return count
}

func CountNotificationsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, organizationID string) int {
	var count int
	err := sqlExec.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE organization_id = $1", organizationID)
	require.NoError(t, err)
	return count
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
