package crashtracker

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCrashTrackerClient records reported errors and messages. Clone must be stubbed by tests that trigger it.
type MockCrashTrackerClient struct {
	mock.Mock
}

var _ CrashTrackerClient = (*MockCrashTrackerClient)(nil)

func (m *MockCrashTrackerClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	m.Called(ctx, err, msg)
}

func (m *MockCrashTrackerClient) LogAndReportMessages(ctx context.Context, msg string) {
	m.Called(ctx, msg)
}

func (m *MockCrashTrackerClient) FlushEvents(waitTime time.Duration) bool {
	args := m.Called(waitTime)
	return args.Bool(0)
}

func (m *MockCrashTrackerClient) Recover() {
	m.Called()
}

func (m *MockCrashTrackerClient) Clone() CrashTrackerClient {
	args := m.Called()
	if client, ok := args.Get(0).(CrashTrackerClient); ok {
		return client
	}
	return m
}
