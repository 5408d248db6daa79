package crashtracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHubSentry struct {
	mock.Mock
}

func (m *mockHubSentry) CaptureException(exception error) *sentry.EventID {
	return m.Called(exception).Get(0).(*sentry.EventID)
}

func (m *mockHubSentry) CaptureMessage(message string) *sentry.EventID {
	return m.Called(message).Get(0).(*sentry.EventID)
}

func (m *mockHubSentry) Clone() *sentry.Hub {
	return m.Called().Get(0).(*sentry.Hub)
}

func (m *mockHubSentry) Flush(timeout time.Duration) bool {
	return m.Called(timeout).Bool(0)
}

func (m *mockHubSentry) Recover(err interface{}) *sentry.EventID {
	return m.Called(err).Get(0).(*sentry.EventID)
}

var _ hubSentryInterface = (*mockHubSentry)(nil)

func Test_SentryClient_LogAndReportErrors(t *testing.T) {
	mError := fmt.Errorf("mock error")
	ctx := context.Background()
	sentryID := sentry.EventID("id-1")

	t.Run("with message", func(t *testing.T) {
		mHubSentry := &mockHubSentry{}
		mSentryClient := &sentryClient{hub: mHubSentry}

		wantErr := fmt.Errorf("%s: %w", "renewing lease", mError)
		mHubSentry.On("CaptureException", wantErr).Return(&sentryID).Once()
		mSentryClient.LogAndReportErrors(ctx, mError, "renewing lease")

		mHubSentry.AssertExpectations(t)
	})

	t.Run("without message", func(t *testing.T) {
		mHubSentry := &mockHubSentry{}
		mSentryClient := &sentryClient{hub: mHubSentry}

		mHubSentry.On("CaptureException", mError).Return(&sentryID).Once()
		mSentryClient.LogAndReportErrors(ctx, mError, "")

		mHubSentry.AssertExpectations(t)
	})

	t.Run("ignores context.Canceled", func(t *testing.T) {
		mHubSentry := &mockHubSentry{}
		mSentryClient := &sentryClient{hub: mHubSentry}

		getEntries := log.DefaultLogger.StartTest(log.WarnLevel)
		err := fmt.Errorf("external error that wraps: %w", context.Canceled)
		mSentryClient.LogAndReportErrors(ctx, err, "")
		mHubSentry.AssertNotCalled(t, "CaptureException", mock.Anything)

		entries := getEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, "context canceled, not reporting error to sentry", entries[0].Message)
	})
}

func Test_SentryClient_LogAndReportMessages(t *testing.T) {
	mHubSentry := &mockHubSentry{}
	mSentryClient := &sentryClient{hub: mHubSentry}

	sentryID := sentry.EventID("id-1")
	mHubSentry.On("CaptureMessage", "auto-renewal finished").Return(&sentryID).Once()
	mSentryClient.LogAndReportMessages(context.Background(), "auto-renewal finished")

	mHubSentry.AssertExpectations(t)
}

func Test_SentryClient_FlushEvents(t *testing.T) {
	mHubSentry := &mockHubSentry{}
	mSentryClient := &sentryClient{hub: mHubSentry}

	mHubSentry.On("Flush", time.Second).Return(true).Once()
	assert.True(t, mSentryClient.FlushEvents(time.Second))

	mHubSentry.AssertExpectations(t)
}

func Test_SentryClient_Recover(t *testing.T) {
	mHubSentry := &mockHubSentry{}
	mSentryClient := &sentryClient{hub: mHubSentry}

	mockErr := fmt.Errorf("error test")
	sentryID := sentry.EventID("id-1")
	mHubSentry.On("Recover", mockErr).Return(&sentryID).Once()

	defer mHubSentry.AssertExpectations(t)
	defer mSentryClient.Recover()

	panic(mockErr)
}

func Test_SentryClient_Clone(t *testing.T) {
	mHubSentry := &mockHubSentry{}
	mSentryClient := &sentryClient{hub: mHubSentry}

	hub := sentry.Hub{}
	mHubSentry.On("Clone").Return(&hub).Once()

	cloneClient := mSentryClient.Clone()
	assert.Equal(t, &hub, cloneClient.(*sentryClient).hub)

	mHubSentry.AssertExpectations(t)
}
