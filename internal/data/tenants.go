package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixzit/lease-engine/db"
)

// Tenant is a renter in the organization's directory.
type Tenant struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	NationalID     string    `json:"national_id" db:"national_id"`
	Email          string    `json:"email" db:"email"`
	PhoneNumber    string    `json:"phone_number" db:"phone_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (t *Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Snapshot captures the renter identity to be stored with a lease.
func (t *Tenant) Snapshot(capturedAt time.Time) TenantSnapshot {
	return TenantSnapshot{
		FirstName:   t.FirstName,
		LastName:    t.LastName,
		NationalID:  t.NationalID,
		Email:       t.Email,
		PhoneNumber: t.PhoneNumber,
		CapturedAt:  capturedAt.UTC(),
	}
}

type TenantModel struct {
	dbConnectionPool db.DBConnectionPool
}

func (m *TenantModel) Get(ctx context.Context, sqlExec db.SQLExecuter, organizationID, id string) (*Tenant, error) {
	const query = `
		SELECT
			id, organization_id, first_name, last_name, national_id, email, phone_number, created_at, updated_at
		FROM
			tenants
		WHERE
			organization_id = $1 AND id = $2
	`

	var tenant Tenant
	if err := sqlExec.GetContext(ctx, &tenant, query, organizationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying tenant ID %s: %w", id, err)
	}
	return &tenant, nil
}
