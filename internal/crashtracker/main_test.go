package crashtracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseCrashTrackerType(t *testing.T) {
	testCases := []struct {
		crashTrackerTypeStr      string
		expectedCrashTrackerType CrashTrackerType
		wantErr                  string
	}{
		{wantErr: `invalid crash tracker type ""`},
		{crashTrackerTypeStr: "rollbar", wantErr: `invalid crash tracker type "ROLLBAR"`},
		{crashTrackerTypeStr: "sentry", expectedCrashTrackerType: CrashTrackerTypeSentry},
		{crashTrackerTypeStr: "SENtry", expectedCrashTrackerType: CrashTrackerTypeSentry},
		{crashTrackerTypeStr: "dry_run", expectedCrashTrackerType: CrashTrackerTypeDryRun},
	}
	for _, tc := range testCases {
		t.Run("crashTrackerType: "+tc.crashTrackerTypeStr, func(t *testing.T) {
			crashTrackerType, err := ParseCrashTrackerType(tc.crashTrackerTypeStr)
			assert.Equal(t, tc.expectedCrashTrackerType, crashTrackerType)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_GetClient(t *testing.T) {
	ctx := context.Background()

	t.Run("sentry", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: CrashTrackerTypeSentry})
		require.NoError(t, err)
		assert.IsType(t, &sentryClient{}, gotClient)
	})

	t.Run("dry run", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: CrashTrackerTypeDryRun})
		require.NoError(t, err)
		assert.IsType(t, &dryRunClient{}, gotClient)
	})

	t.Run("unknown", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: "ROLLBAR"})
		assert.Nil(t, gotClient)
		assert.EqualError(t, err, `unknown crash tracker type: "ROLLBAR"`)
	})
}
