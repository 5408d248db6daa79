package crashtracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/internal/appcontext"
)

func Test_DryRun_LogAndReportErrors(t *testing.T) {
	mDryRunClient := &dryRunClient{}
	ctx := appcontext.SetOrganizationIDInContext(context.Background(), "org-7")

	getEntries := log.DefaultLogger.StartTest(log.ErrorLevel)
	mDryRunClient.LogAndReportErrors(ctx, errors.New("unit is occupied"), "activating lease")
	mDryRunClient.LogAndReportErrors(ctx, errors.New("bare error"), "")

	entries := getEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "[DRY_RUN Crash Reporter] activating lease: unit is occupied", entries[0].Message)
	assert.Equal(t, "org-7", entries[0].Data["organization_id"])
	assert.Equal(t, "[DRY_RUN Crash Reporter] bare error", entries[1].Message)
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
}

func Test_DryRun_LogAndReportMessages(t *testing.T) {
	mDryRunClient := &dryRunClient{}

	getEntries := log.DefaultLogger.StartTest(log.InfoLevel)
	mDryRunClient.LogAndReportMessages(context.Background(), "mock message")

	entries := getEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "[DRY_RUN Crash Reporter] mock message", entries[0].Message)
	assert.Equal(t, appcontext.NoOrganization, entries[0].Data["organization_id"])
}

func Test_DryRun_FlushEventsAndClone(t *testing.T) {
	mDryRunClient := &dryRunClient{}

	assert.False(t, mDryRunClient.FlushEvents(time.Second))
	assert.Same(t, mDryRunClient, mDryRunClient.Clone())
}
