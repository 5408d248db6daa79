package monitor

import (
	"fmt"
	"strings"
)

type MetricType string

const MetricTypePrometheus MetricType = "PROMETHEUS"

// ParseMetricType accepts the metric type case-insensitively, ignoring surrounding whitespace.
func ParseMetricType(metricTypeStr string) (MetricType, error) {
	mType := MetricType(strings.ToUpper(strings.TrimSpace(metricTypeStr)))
	if mType != MetricTypePrometheus {
		return "", fmt.Errorf("invalid metric type %q", string(mType))
	}
	return mType, nil
}

type MetricOptions struct {
	MetricType  MetricType
	Environment string
}

// GetClient builds the metrics backend selected by opts.MetricType.
func GetClient(opts MetricOptions) (MonitorClient, error) {
	if opts.MetricType == MetricTypePrometheus {
		return NewPrometheusClient()
	}
	return nil, fmt.Errorf("unknown metric type: %q", opts.MetricType)
}
