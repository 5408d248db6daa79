package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
)

func Test_NewLeaseExpiryNotificationService(t *testing.T) {
	_, err := NewLeaseExpiryNotificationService(nil, nil, nil)
	assert.EqualError(t, err, "models cannot be nil")
}

func Test_uniqueSortedDesc(t *testing.T) {
	assert.Equal(t, []int{90, 30, 7}, uniqueSortedDesc([]int{7, 30, 90, 30, 7}))
	assert.Empty(t, uniqueSortedDesc(nil))
}

func Test_LeaseExpiryNotificationService_ProcessLeaseExpiryNotifications(t *testing.T) {
	models := setupModels(t)
	dbConnectionPool := models.DBConnectionPool
	ctx := context.Background()
	today := data.Date(2025, time.June, 1)

	service, err := NewLeaseExpiryNotificationService(models, nil, fixedClock(today))
	require.NoError(t, err)

	t.Run("enqueues one reminder per lease and threshold across runs", func(t *testing.T) {
		scope := data.CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		in30 := data.CreateLeaseFixture(t, ctx, dbConnectionPool, scope, data.ActiveLeaseStatus, data.Date(2024, time.July, 2), today.AddDate(0, 0, 30), "3000")

		secondUnit := scope
		secondUnit.Unit = data.CreateUnitFixture(t, ctx, dbConnectionPool, scope.Organization.ID, scope.PropertyID, "B-201")
		in7 := data.CreateLeaseFixture(t, ctx, dbConnectionPool, secondUnit, data.ActiveLeaseStatus, data.Date(2024, time.June, 9), today.AddDate(0, 0, 7), "2800")

		// ending on a day that is not a threshold
		thirdUnit := scope
		thirdUnit.Unit = data.CreateUnitFixture(t, ctx, dbConnectionPool, scope.Organization.ID, scope.PropertyID, "C-301")
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, thirdUnit, data.ActiveLeaseStatus, data.Date(2024, time.June, 20), today.AddDate(0, 0, 20), "2800")

		// not ACTIVE
		fourthUnit := scope
		fourthUnit.Unit = data.CreateUnitFixture(t, ctx, dbConnectionPool, scope.Organization.ID, scope.PropertyID, "D-401")
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, fourthUnit, data.DraftLeaseStatus, data.Date(2024, time.July, 2), today.AddDate(0, 0, 30), "2800")

		req := ProcessLeaseExpiryNotificationsRequest{OrganizationID: scope.Organization.ID, Thresholds: []int{90, 60, 30, 14, 7}}
		report, err := service.ProcessLeaseExpiryNotifications(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, &LeaseExpiryNotificationReport{OrganizationID: scope.Organization.ID, Scanned: 2, Enqueued: 2}, report)

		notifications, err := models.Notifications.GetAllByType(ctx, dbConnectionPool, scope.Organization.ID, data.LeaseExpiryReminderNotificationType)
		require.NoError(t, err)
		require.Len(t, notifications, 2)

		byLease := map[string]*data.Notification{}
		for _, n := range notifications {
			byLease[n.Data["lease_id"].(string)] = n
		}
		require.Contains(t, byLease, in30.ID)
		assert.Equal(t, scope.Tenant.ID, byLease[in30.ID].RecipientID)
		assert.Equal(t, data.PendingNotificationStatus, byLease[in30.ID].Status)
		assert.Equal(t, in30.LeaseNumber, byLease[in30.ID].Data["lease_number"])
		assert.Equal(t, "2025-07-01", byLease[in30.ID].Data["end_date"])
		assert.Equal(t, float64(30), byLease[in30.ID].Data["days_remaining"])
		require.Contains(t, byLease, in7.ID)
		assert.Equal(t, float64(7), byLease[in7.ID].Data["days_remaining"])

		assert.True(t, data.GetLeaseFixture(t, ctx, dbConnectionPool, in30.ID).HasSentThreshold(30))

		// the second run finds nothing left to send
		report, err = service.ProcessLeaseExpiryNotifications(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, &LeaseExpiryNotificationReport{OrganizationID: scope.Organization.ID}, report)
		assert.Equal(t, 2, data.CountNotificationsFixture(t, ctx, dbConnectionPool, scope.Organization.ID))
	})

	t.Run("uses the organization thresholds when none are given", func(t *testing.T) {
		scope := data.CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		data.UpdateOrganizationLeaseSettingsFixture(t, ctx, dbConnectionPool, scope.Organization.ID, []int64{45}, 30, "0")
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, scope, data.ActiveLeaseStatus, data.Date(2024, time.July, 16), today.AddDate(0, 0, 45), "3000")

		secondUnit := scope
		secondUnit.Unit = data.CreateUnitFixture(t, ctx, dbConnectionPool, scope.Organization.ID, scope.PropertyID, "B-201")
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, secondUnit, data.ActiveLeaseStatus, data.Date(2024, time.July, 2), today.AddDate(0, 0, 30), "3000")

		report, err := service.ProcessLeaseExpiryNotifications(ctx, ProcessLeaseExpiryNotificationsRequest{OrganizationID: scope.Organization.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Enqueued)
		assert.Equal(t, 1, data.CountNotificationsFixture(t, ctx, dbConnectionPool, scope.Organization.ID))
	})

	t.Run("concurrent runs enqueue each reminder once", func(t *testing.T) {
		scope := data.CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, scope, data.ActiveLeaseStatus, data.Date(2024, time.July, 2), today.AddDate(0, 0, 30), "3000")

		req := ProcessLeaseExpiryNotificationsRequest{OrganizationID: scope.Organization.ID, Thresholds: []int{30}}
		reports := make([]*LeaseExpiryNotificationReport, 4)
		var wg sync.WaitGroup
		for i := range reports {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var runErr error
				reports[i], runErr = service.ProcessLeaseExpiryNotifications(ctx, req)
				assert.NoError(t, runErr)
			}(i)
		}
		wg.Wait()

		enqueued := 0
		for _, report := range reports {
			require.NotNil(t, report)
			enqueued += report.Enqueued
			assert.Zero(t, report.Failed)
		}
		assert.Equal(t, 1, enqueued)
		assert.Equal(t, 1, data.CountNotificationsFixture(t, ctx, dbConnectionPool, scope.Organization.ID))
	})

	t.Run("records job metrics", func(t *testing.T) {
		monitorService := &monitor.MockMonitorService{}
		monitoredService, err := NewLeaseExpiryNotificationService(models, monitorService, fixedClock(today))
		require.NoError(t, err)

		scope := data.CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		data.CreateLeaseFixture(t, ctx, dbConnectionPool, scope, data.ActiveLeaseStatus, data.Date(2024, time.July, 2), today.AddDate(0, 0, 30), "3000")

		monitorService.
			On("MonitorCounters", monitor.LeaseJobItemsCounterTag, map[string]string{"job": "lease_expiry_notification", "outcome": "enqueued"}).
			Return(nil).
			Once().
			On("MonitorCounters", monitor.NotificationsEnqueuedTag, map[string]string{"type": "lease_expiry_reminder"}).
			Return(nil).
			Once().
			On("MonitorDuration", mock.AnythingOfType("time.Duration"), monitor.LeaseJobDurationTag, map[string]string{"job": "lease_expiry_notification", "outcome": "success"}).
			Return(nil).
			Once()

		_, err = monitoredService.ProcessLeaseExpiryNotifications(ctx, ProcessLeaseExpiryNotificationsRequest{OrganizationID: scope.Organization.ID, Thresholds: []int{30}})
		require.NoError(t, err)
		monitorService.AssertExpectations(t)
	})

	t.Run("validates the request", func(t *testing.T) {
		_, err := service.ProcessLeaseExpiryNotifications(ctx, ProcessLeaseExpiryNotificationsRequest{OrganizationID: "org"})
		assert.ErrorIs(t, err, ErrValidation)

		scope := data.CreateLeaseScopeFixture(t, ctx, dbConnectionPool)
		_, err = service.ProcessLeaseExpiryNotifications(ctx, ProcessLeaseExpiryNotificationsRequest{OrganizationID: scope.Organization.ID, Thresholds: []int{30, 0}})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = service.ProcessLeaseExpiryNotifications(ctx, ProcessLeaseExpiryNotificationsRequest{OrganizationID: "4b7a0f3c-1d2e-4f5a-8b9c-0d1e2f3a4b5c"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
