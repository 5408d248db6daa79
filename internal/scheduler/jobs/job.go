package jobs

import (
	"context"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

// DefaultMinimumJobIntervalSeconds is the interval used when a job is configured below it.
const DefaultMinimumJobIntervalSeconds = 5

// Job is a periodic task run by the scheduler. When IsJobMultiOrganization is true the scheduler runs Execute once per
// organization, with the organization ID in the context.
type Job interface {
	Execute(context.Context) error
	GetInterval() time.Duration
	GetName() string
	IsJobMultiOrganization() bool
}

func intervalOrMinimum(jobName string, intervalSeconds int) time.Duration {
	if intervalSeconds < DefaultMinimumJobIntervalSeconds {
		log.Warnf("job interval is not set for %s. Using default interval: %d seconds", jobName, DefaultMinimumJobIntervalSeconds)
		return DefaultMinimumJobIntervalSeconds * time.Second
	}
	return time.Duration(intervalSeconds) * time.Second
}
