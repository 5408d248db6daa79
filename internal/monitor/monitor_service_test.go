package monitor

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMonitorClient struct {
	mock.Mock
}

func (m *mockMonitorClient) GetMetricHttpHandler() http.Handler {
	return m.Called().Get(0).(http.Handler)
}

func (m *mockMonitorClient) GetMetricType() MetricType {
	return m.Called().Get(0).(MetricType)
}

func (m *mockMonitorClient) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) {
	m.Called(duration, tag, labels)
}

func (m *mockMonitorClient) MonitorCounters(tag MetricTag, labels map[string]string) {
	m.Called(tag, labels)
}

func (m *mockMonitorClient) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) {
	m.Called(duration, tag, labels)
}

var _ MonitorClient = &mockMonitorClient{}

func Test_MonitorService_Start(t *testing.T) {
	monitorService := &MonitorService{}

	err := monitorService.Start(MetricOptions{MetricType: MetricTypePrometheus})
	require.NoError(t, err)
	assert.IsType(t, &prometheusClient{}, monitorService.MonitorClient)

	err = monitorService.Start(MetricOptions{MetricType: MetricTypePrometheus})
	assert.EqualError(t, err, "service already initialized")
}

func Test_MonitorService_uninitialized(t *testing.T) {
	monitorService := &MonitorService{}

	_, err := monitorService.GetMetricType()
	assert.ErrorIs(t, err, ErrClientNotInitialized)
	_, err = monitorService.GetMetricHttpHandler()
	assert.EqualError(t, err, "client was not initialized")
	assert.EqualError(t, monitorService.MonitorCounters(LeaseTransitionsCounterTag, nil), "client was not initialized")
	assert.EqualError(t, monitorService.MonitorDuration(time.Second, LeaseJobDurationTag, nil), "client was not initialized")
	assert.EqualError(t, monitorService.MonitorDBQueryDuration(time.Second, SuccessfulQueryDurationTag, DBQueryLabels{}), "client was not initialized")
}

func Test_MonitorService_delegates(t *testing.T) {
	mMonitorClient := &mockMonitorClient{}
	monitorService := &MonitorService{MonitorClient: mMonitorClient}

	jobLabels := LeaseJobLabels{Job: "lease_auto_renewal_job", Outcome: "renewed"}.ToMap()
	mMonitorClient.
		On("GetMetricType").Return(MetricTypePrometheus).Once().
		On("MonitorCounters", LeaseJobItemsCounterTag, jobLabels).Return().Once().
		On("MonitorDuration", time.Second, LeaseJobDurationTag, jobLabels).Return().Once().
		On("MonitorDBQueryDuration", time.Second, SuccessfulQueryDurationTag, DBQueryLabels{QueryType: "SELECT"}).Return().Once()

	metricType, err := monitorService.GetMetricType()
	require.NoError(t, err)
	assert.Equal(t, MetricTypePrometheus, metricType)

	require.NoError(t, monitorService.MonitorCounters(LeaseJobItemsCounterTag, jobLabels))
	require.NoError(t, monitorService.MonitorDuration(time.Second, LeaseJobDurationTag, jobLabels))
	require.NoError(t, monitorService.MonitorDBQueryDuration(time.Second, SuccessfulQueryDurationTag, DBQueryLabels{QueryType: "SELECT"}))

	mMonitorClient.AssertExpectations(t)
}
