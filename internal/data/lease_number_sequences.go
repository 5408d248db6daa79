package data

import (
	"context"
	"fmt"

	"github.com/fixzit/lease-engine/db"
)

// LeaseNumberSequenceModel hands out lease numbers from a counter per organization and year.
type LeaseNumberSequenceModel struct{}

// Next atomically increments and returns the counter of (organizationID, year). It must run inside the transaction
// that inserts the lease so that a rolled back insert does not consume the number.
func (m *LeaseNumberSequenceModel) Next(ctx context.Context, sqlExec db.SQLExecuter, organizationID string, year int) (int64, error) {
	const query = `
		INSERT INTO lease_number_sequences
			(organization_id, year, last_value)
		VALUES
			($1, $2, 1)
		ON CONFLICT (organization_id, year) DO UPDATE
			SET last_value = lease_number_sequences.last_value + 1, updated_at = NOW()
		RETURNING
			last_value
	`

	var value int64
	if err := sqlExec.GetContext(ctx, &value, query, organizationID, year); err != nil {
		return 0, fmt.Errorf("incrementing lease number sequence for %d: %w", year, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("lease number sequence for %d returned invalid value %d", year, value)
	}
	return value, nil
}

// FormatLeaseNumber renders a sequence value as LSE-<year>-<seq>.
func FormatLeaseNumber(year int, seq int64) string {
	return fmt.Sprintf("LSE-%d-%05d", year, seq)
}
