package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HttpRequestDurationTag     MetricTag = "requests_duration_seconds"
	// Lease lifecycle:
	LeaseTransitionsCounterTag MetricTag = "lease_transitions_total"
	// Batch jobs:
	LeaseJobItemsCounterTag  MetricTag = "lease_job_items_total"
	LeaseJobDurationTag      MetricTag = "lease_job_duration_seconds"
	NotificationsEnqueuedTag MetricTag = "notifications_enqueued_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HttpRequestDurationTag,
		LeaseTransitionsCounterTag,
		LeaseJobItemsCounterTag,
		LeaseJobDurationTag,
		NotificationsEnqueuedTag,
	}
}
