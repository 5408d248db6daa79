package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/db/dbtest"
)

func openTestDBConnectionPool(t *testing.T) DBConnectionPool {
	t.Helper()

	dbt := dbtest.Open(t)
	dbConnectionPool, err := OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)

	t.Cleanup(func() {
		dbConnectionPool.Close()
		dbt.Close()
	})

	return dbConnectionPool
}
