package monitor

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrapeMetrics(t *testing.T, client *prometheusClient) string {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/metrics", client.GetMetricHttpHandler().ServeHTTP)

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	data, err := io.ReadAll(rr.Result().Body)
	require.NoError(t, err)
	return string(data)
}

func Test_PrometheusClient_GetMetricType(t *testing.T) {
	mPrometheusClient := &prometheusClient{}
	assert.Equal(t, MetricTypePrometheus, mPrometheusClient.GetMetricType())
}

func Test_PrometheusClient_GetMetricHttpHandler(t *testing.T) {
	mHttpHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status": "OK"}`))
		require.NoError(t, err)
	})
	mPrometheusClient := &prometheusClient{httpHandler: mHttpHandler}

	body := scrapeMetrics(t, mPrometheusClient)
	assert.JSONEq(t, `{"status": "OK"}`, body)
}

func Test_PrometheusClient_MonitorDBQueryDuration(t *testing.T) {
	client, err := NewPrometheusClient()
	require.NoError(t, err)

	client.MonitorDBQueryDuration(time.Second, SuccessfulQueryDurationTag, DBQueryLabels{QueryType: "SELECT"})
	client.MonitorDBQueryDuration(time.Second, FailureQueryDurationTag, DBQueryLabels{QueryType: "UPDATE"})

	body := scrapeMetrics(t, client)
	assert.Contains(t, body, `lease_engine_db_successful_queries_duration_count{query_type="SELECT"}`)
	assert.Contains(t, body, `lease_engine_db_failure_queries_duration_count{query_type="UPDATE"}`)
}

func Test_PrometheusClient_MonitorCounters(t *testing.T) {
	client, err := NewPrometheusClient()
	require.NoError(t, err)

	labels := LeaseTransitionLabels{Transition: "activate_test", Outcome: "success"}
	client.MonitorCounters(LeaseTransitionsCounterTag, labels.ToMap())
	client.MonitorCounters(LeaseTransitionsCounterTag, labels.ToMap())
	client.MonitorCounters(NotificationsEnqueuedTag, map[string]string{"type": "lease_expiry_reminder_test"})

	body := scrapeMetrics(t, client)
	assert.Contains(t, body, `lease_engine_leases_lease_transitions_total{outcome="success",transition="activate_test"} 2`)
	assert.Contains(t, body, `lease_engine_notifications_notifications_enqueued_total{type="lease_expiry_reminder_test"} 1`)

	// unregistered tags are logged and ignored
	client.MonitorCounters(MetricTag("unknown"), nil)
	client.MonitorCounters(MetricTag("unknown"), map[string]string{"a": "b"})
}

func Test_PrometheusClient_MonitorDuration(t *testing.T) {
	client, err := NewPrometheusClient()
	require.NoError(t, err)

	labels := LeaseJobLabels{Job: "duration_test_job", Outcome: "success"}
	client.MonitorDuration(2*time.Second, LeaseJobDurationTag, labels.ToMap())

	body := scrapeMetrics(t, client)
	wantLine := `lease_engine_jobs_lease_job_duration_seconds_count{job="duration_test_job",outcome="success"} 1`
	assert.True(t, strings.Contains(body, wantLine), "metrics body should contain %q", wantLine)
}

func Test_PrometheusClient_MonitorDuration_httpRequests(t *testing.T) {
	client, err := NewPrometheusClient()
	require.NoError(t, err)

	labels := HttpRequestLabels{Status: "200", Route: "/health_test", Method: "GET"}
	client.MonitorDuration(50*time.Millisecond, HttpRequestDurationTag, labels.ToMap())

	body := scrapeMetrics(t, client)
	wantLine := `lease_engine_http_requests_duration_seconds_count{method="GET",route="/health_test",status="200"} 1`
	assert.True(t, strings.Contains(body, wantLine), "metrics body should contain %q", wantLine)
}
