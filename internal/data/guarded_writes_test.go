package data

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func Test_execGuarded(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		result      func(sqlmock.Sqlmock)
		wantApplied bool
		wantErr     string
	}{
		{
			name: "one row matched",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE leases").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantApplied: true,
		},
		{
			name: "zero rows matched",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE leases").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantApplied: false,
		},
		{
			name: "more than one row matched",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE leases").WillReturnResult(sqlmock.NewResult(0, 2))
			},
			wantErr: "unexpected number of rows affected: 2 when claiming",
		},
		{
			name: "rows affected unavailable",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE leases").WillReturnResult(sqlmock.NewErrorResult(errors.New("driver failure")))
			},
			wantErr: "getting number of rows affected when claiming: driver failure",
		},
		{
			name: "exec error",
			result: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE leases").WillReturnError(errors.New("connection reset"))
			},
			wantErr: "claiming: connection reset",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sqlxDB, mock := newSQLMock(t)
			tc.result(mock)

			applied, err := execGuarded(ctx, sqlxDB, "claiming", "UPDATE leases SET x = 1 WHERE id = $1", "lease-id")
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantApplied, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func Test_LeaseModel_UpdateStatus_zeroRows(t *testing.T) {
	ctx := context.Background()
	sqlxDB, mock := newSQLMock(t)
	leaseModel := &LeaseModel{}

	mock.ExpectQuery(`UPDATE\s+leases`).
		WithArgs(ActiveLeaseStatus, "user-1", "ACTIVE", "user-1", nil, nil, "lease-1", DraftLeaseStatus).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := leaseModel.UpdateStatus(ctx, sqlxDB, LeaseStatusUpdate{
		LeaseID:    "lease-1",
		FromStatus: DraftLeaseStatus,
		ToStatus:   ActiveLeaseStatus,
		UserID:     "user-1",
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_UnitModel_Occupy_zeroRows(t *testing.T) {
	ctx := context.Background()
	sqlxDB, mock := newSQLMock(t)
	unitModel := &UnitModel{}

	mock.ExpectExec(`UPDATE\s+units`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := unitModel.Occupy(ctx, sqlxDB, "unit-1", "tenant-1", "lease-2", "")
	assert.ErrorIs(t, err, ErrUnitOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_LeaseNumberSequenceModel_Next_rejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	sqlxDB, mock := newSQLMock(t)

	mock.ExpectQuery(`INSERT INTO lease_number_sequences`).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(0))

	_, err := (&LeaseNumberSequenceModel{}).Next(ctx, sqlxDB, "org-1", 2025)
	assert.EqualError(t, err, "lease number sequence for 2025 returned invalid value 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}
