package data

import (
	"errors"
	"time"

	"github.com/fixzit/lease-engine/db"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrRecordAlreadyExists = errors.New("record already exists")
	// ErrConcurrentModification is returned when a guarded write matched zero rows because the record no longer holds
	// the expected pre-state.
	ErrConcurrentModification = errors.New("record was modified concurrently")
	// ErrUnitOccupied is returned when a unit cannot be occupied because another lease holds it.
	ErrUnitOccupied = errors.New("unit is occupied")
)

type Models struct {
	Leases           *LeaseModel
	Units            *UnitModel
	Tenants          *TenantModel
	Organizations    *OrganizationModel
	LeaseNumbers     *LeaseNumberSequenceModel
	Notifications    *NotificationModel
	DBConnectionPool db.DBConnectionPool
}

func NewModels(dbConnectionPool db.DBConnectionPool) (*Models, error) {
	if dbConnectionPool == nil {
		return nil, errors.New("dbConnectionPool is required for NewModels")
	}
	return &Models{
		Leases:           &LeaseModel{dbConnectionPool: dbConnectionPool},
		Units:            &UnitModel{dbConnectionPool: dbConnectionPool},
		Tenants:          &TenantModel{dbConnectionPool: dbConnectionPool},
		Organizations:    &OrganizationModel{dbConnectionPool: dbConnectionPool},
		LeaseNumbers:     &LeaseNumberSequenceModel{},
		Notifications:    &NotificationModel{dbConnectionPool: dbConnectionPool},
		DBConnectionPool: dbConnectionPool,
	}, nil
}

// SQLDate formats t as a calendar date so DATE comparisons do not depend on the session time zone.
func SQLDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
