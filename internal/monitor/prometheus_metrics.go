package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "lease_engine"

func PrometheusMetrics() map[MetricTag]prometheus.Collector {
	metrics := make(map[MetricTag]prometheus.Collector)

	for tag, summaryVec := range SummaryVecMetrics {
		metrics[tag] = summaryVec
	}

	for tag, counter := range CounterMetrics {
		metrics[tag] = counter
	}

	for tag, histogramVec := range HistogramVecMetrics {
		metrics[tag] = histogramVec
	}

	for tag, counterVec := range CounterVecMetrics {
		metrics[tag] = counterVec
	}

	return metrics
}

var SummaryVecMetrics = map[MetricTag]*prometheus.SummaryVec{
	SuccessfulQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: string(SuccessfulQueryDurationTag),
		Help: "Successful DB query durations",
	},
		[]string{"query_type"},
	),
	FailureQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: string(FailureQueryDurationTag),
		Help: "Failure DB query durations",
	},
		[]string{"query_type"},
	),
	HttpRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: string(HttpRequestDurationTag),
		Help: "Ops server request durations",
	},
		HttpRequestLabelNames,
	),
}

var CounterMetrics = map[MetricTag]prometheus.Counter{}

var HistogramVecMetrics = map[MetricTag]*prometheus.HistogramVec{
	LeaseJobDurationTag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "jobs", Name: string(LeaseJobDurationTag),
		Help:    "A histogram of the lease batch job run durations",
		Buckets: prometheus.DefBuckets,
	},
		LeaseJobLabelNames,
	),
}

var CounterVecMetrics = map[MetricTag]*prometheus.CounterVec{
	LeaseTransitionsCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "leases", Name: string(LeaseTransitionsCounterTag),
		Help: "Lease lifecycle operations by transition and outcome",
	},
		LeaseTransitionLabelNames,
	),
	LeaseJobItemsCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "jobs", Name: string(LeaseJobItemsCounterTag),
		Help: "Leases processed by the batch jobs, by job and outcome",
	},
		LeaseJobLabelNames,
	),
	NotificationsEnqueuedTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "notifications", Name: string(NotificationsEnqueuedTag),
		Help: "Notifications enqueued for the notification dispatcher",
	},
		[]string{"type"},
	),
}
