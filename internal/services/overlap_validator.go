package services

import (
	"context"
	"fmt"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/internal/data"
)

// OverlapChecker is the read side of the lease store used to detect overlapping leases.
type OverlapChecker interface {
	HasOverlap(ctx context.Context, sqlExec db.SQLExecuter, q data.OverlapQuery) (bool, error)
}

var _ OverlapChecker = (*data.LeaseModel)(nil)

// validateNoOverlap returns a Conflict when an ACTIVE or PENDING_APPROVAL lease of the unit, other than
// q.ExcludeLeaseID, intersects [q.StartDate, q.EndDate]. It must run in the transaction of the write it protects.
func validateNoOverlap(ctx context.Context, checker OverlapChecker, dbTx db.SQLExecuter, q data.OverlapQuery) error {
	overlaps, err := checker.HasOverlap(ctx, dbTx, q)
	if err != nil {
		return fmt.Errorf("checking lease overlap: %w", err)
	}
	if overlaps {
		return NewConflictError(fmt.Sprintf("unit %s already has a lease between %s and %s",
			q.UnitID, data.SQLDate(q.StartDate), data.SQLDate(q.EndDate)), nil)
	}
	return nil
}
