package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/db/dbtest"
	"github.com/fixzit/lease-engine/internal/monitor"
)

func TestDBConnectionPoolWithMetrics_BeginTxx(t *testing.T) {
	ctx := context.Background()
	const query = "UPDATE units SET status = $1 WHERE id = $2"

	dbConnectionPool, sqlMock := newMockConnectionPool(t)
	mMonitorService := monitor.NewMockMonitorService(t)

	dbConnectionPoolWithMetrics, err := NewDBConnectionPoolWithMetrics(dbConnectionPool, mMonitorService)
	require.NoError(t, err)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(query).WithArgs("occupied", "unit-1").WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()
	mMonitorService.
		On("MonitorDBQueryDuration", mock.AnythingOfType("time.Duration"), monitor.SuccessfulQueryDurationTag, monitor.DBQueryLabels{QueryType: "UPDATE"}).
		Return(nil).
		Once()

	dbTx, err := dbConnectionPoolWithMetrics.BeginTxx(ctx, nil)
	require.NoError(t, err)
	assert.IsType(t, &DBTransactionWithMetrics{}, dbTx)

	_, err = dbTx.ExecContext(ctx, query, "occupied", "unit-1")
	require.NoError(t, err)
	require.NoError(t, dbTx.Commit())
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestDBConnectionPoolWithMetrics_RunInTransaction(t *testing.T) {
	ctx := context.Background()
	const query = "SELECT COUNT(*) FROM leases WHERE unit_id = $1"

	dbConnectionPool, sqlMock := newMockConnectionPool(t)
	mMonitorService := monitor.NewMockMonitorService(t)

	dbConnectionPoolWithMetrics, err := NewDBConnectionPoolWithMetrics(dbConnectionPool, mMonitorService)
	require.NoError(t, err)

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(query).WithArgs("unit-1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	sqlMock.ExpectCommit()
	mMonitorService.
		On("MonitorDBQueryDuration", mock.AnythingOfType("time.Duration"), monitor.SuccessfulQueryDurationTag, monitor.DBQueryLabels{QueryType: "SELECT"}).
		Return(nil).
		Once()

	count, err := RunInTransactionWithResult(ctx, dbConnectionPoolWithMetrics, nil, func(dbTx DBTransaction) (int, error) {
		var count int
		err := dbTx.GetContext(ctx, &count, query, "unit-1")
		return count, err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOpenDBConnectionPoolWithMetricsAndConfig(t *testing.T) {
	dbt := dbtest.OpenWithoutMigrations(t)
	defer dbt.Close()

	mMonitorService := &monitor.MockMonitorService{}
	mMonitorService.
		On("MonitorDBQueryDuration", mock.AnythingOfType("time.Duration"), mock.Anything, mock.Anything).
		Return(nil).
		Maybe()

	dbConnectionPool, err := OpenDBConnectionPoolWithMetricsAndConfig(dbt.DSN, DBPoolConfig{
		MaxOpenConns:    3,
		MaxIdleConns:    1,
		ConnMaxIdleTime: time.Second,
		ConnMaxLifetime: time.Minute,
	}, mMonitorService)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	require.NoError(t, dbConnectionPool.Ping(ctx))

	sqlDB, err := dbConnectionPool.SqlDB(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)

	dsn, err := dbConnectionPool.DSN(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbt.DSN, dsn)

	var one int
	require.NoError(t, dbConnectionPool.GetContext(ctx, &one, "SELECT 1"))
	assert.Equal(t, 1, one)
	mMonitorService.AssertCalled(t, "MonitorDBQueryDuration", mock.AnythingOfType("time.Duration"), monitor.SuccessfulQueryDurationTag, monitor.DBQueryLabels{QueryType: "SELECT"})
}
