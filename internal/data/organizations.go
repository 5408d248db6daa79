package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fixzit/lease-engine/db"
)

var DefaultExpiryNotificationThresholds = []int{90, 60, 30, 14, 7}

const DefaultAutoRenewalWindowDays = 30

type Organization struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	// ExpiryNotificationThresholds are the days before a lease end date on which a reminder is enqueued.
	ExpiryNotificationThresholds pq.Int64Array `json:"expiry_notification_thresholds" db:"expiry_notification_thresholds"`
	// AutoRenewalWindowDays is how many days ahead of the end date an auto-renew lease becomes eligible for renewal.
	AutoRenewalWindowDays          int             `json:"auto_renewal_window_days" db:"auto_renewal_window_days"`
	AutoRenewalRentIncreasePercent decimal.Decimal `json:"auto_renewal_rent_increase_percent" db:"auto_renewal_rent_increase_percent"`
	CreatedAt                      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                      time.Time       `json:"updated_at" db:"updated_at"`
}

// Thresholds returns the organization's expiry thresholds, falling back to the defaults when none are configured.
func (o *Organization) Thresholds() []int {
	if len(o.ExpiryNotificationThresholds) == 0 {
		return DefaultExpiryNotificationThresholds
	}
	thresholds := make([]int, 0, len(o.ExpiryNotificationThresholds))
	for _, t := range o.ExpiryNotificationThresholds {
		thresholds = append(thresholds, int(t))
	}
	return thresholds
}

type OrganizationModel struct {
	dbConnectionPool db.DBConnectionPool
}

const selectOrganizationQuery = `
	SELECT
		id, name, expiry_notification_thresholds, auto_renewal_window_days, auto_renewal_rent_increase_percent,
		created_at, updated_at
	FROM
		organizations
`

func (om *OrganizationModel) Get(ctx context.Context, id string) (*Organization, error) {
	var organization Organization
	err := om.dbConnectionPool.GetContext(ctx, &organization, selectOrganizationQuery+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying organization ID %s: %w", id, err)
	}
	return &organization, nil
}

// GetAll returns every organization ordered by creation, used to fan batch jobs out per organization.
func (om *OrganizationModel) GetAll(ctx context.Context) ([]*Organization, error) {
	organizations := []*Organization{}
	err := om.dbConnectionPool.SelectContext(ctx, &organizations, selectOrganizationQuery+" ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	return organizations, nil
}
