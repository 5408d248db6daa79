package monitor

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrClientNotInitialized is returned by every MonitorService call made before Start.
var ErrClientNotInitialized = errors.New("client was not initialized")

// MonitorServiceInterface records the lease engine metrics: DB query durations, HTTP request durations, lifecycle
// transition counters and batch job counters and durations.
type MonitorServiceInterface interface {
	Start(opts MetricOptions) error
	GetMetricType() (MetricType, error)
	GetMetricHttpHandler() (http.Handler, error)
	MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error
	MonitorCounters(tag MetricTag, labels map[string]string) error
	MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) error
}

var _ MonitorServiceInterface = (*MonitorService)(nil)

type MonitorService struct {
	MonitorClient MonitorClient
}

func (m *MonitorService) Start(opts MetricOptions) error {
	if m.MonitorClient != nil {
		return errors.New("service already initialized")
	}

	monitorClient, err := GetClient(opts)
	if err != nil {
		return fmt.Errorf("error creating monitor client: %w", err)
	}
	m.MonitorClient = monitorClient

	return nil
}

func (m *MonitorService) client() (MonitorClient, error) {
	if m.MonitorClient == nil {
		return nil, ErrClientNotInitialized
	}
	return m.MonitorClient, nil
}

func (m *MonitorService) GetMetricType() (MetricType, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}
	return client.GetMetricType(), nil
}

func (m *MonitorService) GetMetricHttpHandler() (http.Handler, error) {
	client, err := m.client()
	if err != nil {
		return nil, err
	}
	return client.GetMetricHttpHandler(), nil
}

func (m *MonitorService) MonitorDBQueryDuration(duration time.Duration, tag MetricTag, labels DBQueryLabels) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	client.MonitorDBQueryDuration(duration, tag, labels)
	return nil
}

// MonitorDuration observes a duration histogram, e.g. HTTP requests or one run of a lease job.
func (m *MonitorService) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	client.MonitorDuration(duration, tag, labels)
	return nil
}

// MonitorCounters increments a counter, e.g. a lease transition or a processed job item.
func (m *MonitorService) MonitorCounters(tag MetricTag, labels map[string]string) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	client.MonitorCounters(tag, labels)
	return nil
}
