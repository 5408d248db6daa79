package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/db/dbtest"
)

func Test_Fixtures_CreateLeaseFixture(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()

	t.Run("creates a DRAFT lease on a vacant unit", func(t *testing.T) {
		scope := CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		lease := CreateLeaseFixture(t, ctx, dbConnectionPool, scope, DraftLeaseStatus, Date(2025, 1, 1), Date(2025, 12, 31), "1000.00")

		assert.Equal(t, DraftLeaseStatus, lease.Status)
		assert.Equal(t, scope.Unit.ID, lease.UnitID)
		assert.Equal(t, scope.Tenant.ID, lease.TenantID)
		assert.Equal(t, "1000", lease.MonthlyRent.String())

		unit := GetUnitFixture(t, ctx, dbConnectionPool, scope.Unit.ID)
		assert.Equal(t, VacantUnitStatus, unit.Status)
		assert.Equal(t, 1, CountLeasesFixture(t, ctx, dbConnectionPool, scope.Unit.ID))
	})

	t.Run("an ACTIVE lease occupies the unit", func(t *testing.T) {
		scope := CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		lease := CreateLeaseFixture(t, ctx, dbConnectionPool, scope, ActiveLeaseStatus, Date(2025, 1, 1), Date(2025, 12, 31), "1000.00")

		assert.Equal(t, ActiveLeaseStatus, lease.Status)
		unit := GetUnitFixture(t, ctx, dbConnectionPool, scope.Unit.ID)
		assert.Equal(t, OccupiedUnitStatus, unit.Status)
		require.NotNil(t, unit.CurrentLeaseID)
		assert.Equal(t, lease.ID, *unit.CurrentLeaseID)
	})

	t.Run("a TERMINATED lease carries a termination", func(t *testing.T) {
		scope := CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		lease := CreateLeaseFixture(t, ctx, dbConnectionPool, scope, TerminatedLeaseStatus, Date(2025, 1, 1), Date(2025, 12, 31), "1000.00")

		require.NotNil(t, lease.Termination)
		assert.Equal(t, "fixture", lease.Termination.Reason)
		assert.Equal(t, "2025-12-31", SQLDate(lease.Termination.TerminationDate))
	})

	t.Run("SetLeaseAutoRenewFixture", func(t *testing.T) {
		scope := CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		lease := CreateLeaseFixture(t, ctx, dbConnectionPool, scope, ActiveLeaseStatus, Date(2025, 1, 1), Date(2025, 12, 31), "1000.00")
		require.False(t, lease.AutoRenew)

		SetLeaseAutoRenewFixture(t, ctx, dbConnectionPool, lease.ID, true)
		assert.True(t, GetLeaseFixture(t, ctx, dbConnectionPool, lease.ID).AutoRenew)
	})
}
