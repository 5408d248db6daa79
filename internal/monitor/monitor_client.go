package monitor

import (
	"net/http"
	"time"
)

// MonitorClient is the metrics backend behind MonitorService. Calls never fail: a label set the backend does not know
// is logged and dropped.
type MonitorClient interface {
	GetMetricHttpHandler() http.Handler
	GetMetricType() MetricType
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels)
	MonitorCounters(tag MetricTag, labels map[string]string)
	MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string)
}
