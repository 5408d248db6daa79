package crashtracker

import (
	"context"
	"time"
)

// CrashTrackerClient reports unexpected failures of lease operations and jobs to an external error tracker.
type CrashTrackerClient interface {
	// LogAndReportErrors logs err, prefixed by msg when it is not empty, and reports it.
	LogAndReportErrors(ctx context.Context, err error, msg string)
	LogAndReportMessages(ctx context.Context, msg string)
	// FlushEvents blocks until buffered events are sent or waitTime elapses. It returns false on timeout.
	FlushEvents(waitTime time.Duration) bool
	// Recover reports a recovered panic. It must be called directly by a deferred statement.
	Recover()
	// Clone returns a client safe to use from another goroutine.
	Clone() CrashTrackerClient
}
