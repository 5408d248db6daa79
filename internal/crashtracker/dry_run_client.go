package crashtracker

import (
	"context"
	"time"
)

const dryRunLogPrefix = "[DRY_RUN Crash Reporter]"

// dryRunClient logs what would have been reported, tagged with the organization in the context. Nothing is sent.
type dryRunClient struct{}

var _ CrashTrackerClient = (*dryRunClient)(nil)

func NewDryRunClient() (*dryRunClient, error) {
	return &dryRunClient{}, nil
}

func (c *dryRunClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	if msg == "" {
		logEntry(ctx).Errorf("%s %+v", dryRunLogPrefix, err)
		return
	}
	logEntry(ctx).Errorf("%s %s: %+v", dryRunLogPrefix, msg, err)
}

func (c *dryRunClient) LogAndReportMessages(ctx context.Context, msg string) {
	logEntry(ctx).Infof("%s %s", dryRunLogPrefix, msg)
}

// FlushEvents has nothing buffered to flush.
func (c *dryRunClient) FlushEvents(time.Duration) bool {
	return false
}

func (c *dryRunClient) Recover() {}

func (c *dryRunClient) Clone() CrashTrackerClient {
	return c
}
