package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	db := Open(t)
	defer db.Close()
	session := db.Open()
	defer session.Close()

	count := 0
	err := session.Get(&count, `SELECT COUNT(*) FROM lease_migrations`)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	for _, table := range []string{"organizations", "properties", "tenants", "units", "leases", "lease_number_sequences", "notifications"} {
		err = session.Get(&count, `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}
