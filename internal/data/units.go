package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/db"
)

type UnitStatus string

const (
	VacantUnitStatus   UnitStatus = "vacant"
	OccupiedUnitStatus UnitStatus = "occupied"
)

// Unit is owned by the property directory. The lease engine only writes its status and current tenant/lease
// references.
type Unit struct {
	ID              string     `json:"id" db:"id"`
	OrganizationID  string     `json:"organization_id" db:"organization_id"`
	PropertyID      string     `json:"property_id" db:"property_id"`
	UnitNumber      string     `json:"unit_number" db:"unit_number"`
	Status          UnitStatus `json:"status" db:"status"`
	CurrentTenantID *string    `json:"current_tenant_id,omitempty" db:"current_tenant_id"`
	CurrentLeaseID  *string    `json:"current_lease_id,omitempty" db:"current_lease_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOccupiedByOtherThan reports whether the unit is held by a lease other than leaseID.
func (u *Unit) IsOccupiedByOtherThan(leaseID string) bool {
	if u.Status != OccupiedUnitStatus {
		return false
	}
	return u.CurrentLeaseID == nil || *u.CurrentLeaseID != leaseID
}

type UnitModel struct {
	dbConnectionPool db.DBConnectionPool
}

const selectUnitQuery = `
	SELECT
		id, organization_id, property_id, unit_number, status, current_tenant_id, current_lease_id, created_at, updated_at
	FROM
		units
`

func (m *UnitModel) Get(ctx context.Context, sqlExec db.SQLExecuter, organizationID, id string) (*Unit, error) {
	var unit Unit
	err := sqlExec.GetContext(ctx, &unit, selectUnitQuery+" WHERE organization_id = $1 AND id = $2", organizationID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying unit ID %s: %w", id, err)
	}
	return &unit, nil
}

// Occupy marks the unit occupied by the lease. The unit must be vacant, or currently held by replacedLeaseID when a
// successor lease takes over from its predecessor. Otherwise ErrUnitOccupied is returned.
func (m *UnitModel) Occupy(ctx context.Context, sqlExec db.SQLExecuter, unitID, tenantID, leaseID, replacedLeaseID string) error {
	const query = `
		UPDATE
			units
		SET
			status = $1,
			current_tenant_id = $2,
			current_lease_id = $3
		WHERE
			id = $4
			AND (status = $5 OR current_lease_id = $6::uuid)
	`

	replacedID := sql.NullString{String: replacedLeaseID, Valid: replacedLeaseID != ""}
	applied, err := execGuarded(ctx, sqlExec, fmt.Sprintf("occupying unit %s with lease %s", unitID, leaseID),
		query, OccupiedUnitStatus, tenantID, leaseID, unitID, VacantUnitStatus, replacedID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrUnitOccupied
	}

	log.Ctx(ctx).Infof("Unit %s occupied by lease %s", unitID, leaseID)
	return nil
}

// Vacate clears the unit occupancy if it is still held by leaseID, returning ErrConcurrentModification otherwise.
func (m *UnitModel) Vacate(ctx context.Context, sqlExec db.SQLExecuter, unitID, leaseID string) error {
	const query = `
		UPDATE
			units
		SET
			status = $1,
			current_tenant_id = NULL,
			current_lease_id = NULL
		WHERE
			id = $2
			AND current_lease_id = $3
	`

	applied, err := execGuarded(ctx, sqlExec, fmt.Sprintf("vacating unit %s held by lease %s", unitID, leaseID),
		query, VacantUnitStatus, unitID, leaseID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrConcurrentModification
	}

	log.Ctx(ctx).Infof("Unit %s vacated by lease %s", unitID, leaseID)
	return nil
}
