package ai

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryOptions bounds the exponential backoff around model calls. The
// elapsed budget stays under the caller's timeout so retries never extend
// past the operation deadline.
type retryOptions struct {
	maxElapsedTime  time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration
	maxRetries      uint64
}

func messageRetryOptions() retryOptions {
	return retryOptions{
		maxElapsedTime:  6 * time.Second,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     time.Second,
		maxRetries:      2,
	}
}

func mediaRetryOptions() retryOptions {
	return retryOptions{
		maxElapsedTime:  45 * time.Second,
		initialInterval: 500 * time.Millisecond,
		maxInterval:     5 * time.Second,
		maxRetries:      2,
	}
}

// withRetry executes the operation with exponential backoff, honoring ctx
// cancellation between attempts.
func withRetry[T any](ctx context.Context, operation func() (T, error), opts retryOptions) (T, error) {
	var result T

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.maxElapsedTime),
		backoff.WithInitialInterval(opts.initialInterval),
		backoff.WithMaxInterval(opts.maxInterval),
	), opts.maxRetries)

	backoffOperation := func() error {
		var err error
		result, err = operation()
		return err
	}

	err := backoff.Retry(backoffOperation, backoff.WithContext(b, ctx))
	return result, err
}
