package services

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stellar/go-stellar-sdk/support/log"
)

const (
	DefaultConcurrentModificationAttempts = 3
	concurrentModificationRetryDelay      = 100 * time.Millisecond
)

// RetryOnConcurrentModification runs fn until it succeeds, fails with anything other than a CONCURRENT_MODIFICATION
// error, or runs out of attempts. The last error is returned unchanged.
func RetryOnConcurrentModification[T any](ctx context.Context, attempts uint, fn func() (T, error)) (T, error) {
	if attempts == 0 {
		attempts = DefaultConcurrentModificationAttempts
	}

	var result T
	err := retry.Do(
		func() error {
			var err error
			result, err = fn()
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(concurrentModificationRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrConcurrentModification)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("Retrying after concurrent modification (attempt %d): %v", n+1, err)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return *new(T), err
	}
	return result, nil
}
