package connectors

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// withRetry runs fn up to maxAttempts times, using exponential backoff
// between 2s and 60s, stopping as soon as fn succeeds or ctx is done.
func withRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 60 * time.Second
	b.Multiplier = 2.0
	b.MaxElapsedTime = 0 // bounded by maxAttempts instead of wall clock

	bounded := backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	return backoff.Retry(fn, backoff.WithContext(bounded, ctx))
}

// backoffPermanent marks err as non-retryable: a connector use this for
// errors that another attempt cannot fix, such as a malformed URL or an
// unexpected (non-5xx) HTTP status.
func backoffPermanent(err error) error {
	return backoff.Permanent(err)
}
