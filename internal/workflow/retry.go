package workflow

import (
	"context"
	"time"

	"github.com/cvjob-dk/cvjob-backend/internal/common"
)

// RetryOptions tunes Retry. Zero values fall back to the defaults:
// 3 retries, 1s initial delay, retry-on-network-or-timeout.
type RetryOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
	// ShouldRetry decides whether a failure is worth another attempt.
	ShouldRetry func(error) bool
	// OnRetry fires before each wait, for user notification. It must not
	// affect control flow.
	OnRetry func(err error, attempt int)
}

// Retry runs op, retrying failures a bounded number of times with strictly
// exponential delay (initialDelay * 2^attempt, no jitter, so tests are
// deterministic). The error returned is always a classified *common.AppError
// carrying the total attempt count - including when the very first failure
// is non-retryable.
func Retry(ctx context.Context, op func(ctx context.Context) error, opts RetryOptions) error {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = common.IsRetryable
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= opts.MaxRetries || !opts.ShouldRetry(lastErr) {
			return wrapAttempts(lastErr, attempt+1)
		}

		if opts.OnRetry != nil {
			opts.OnRetry(lastErr, attempt+1)
		}

		delay := opts.InitialDelay << attempt
		select {
		case <-ctx.Done():
			return wrapAttempts(ctx.Err(), attempt+1)
		case <-time.After(delay):
		}
	}
}

// wrapAttempts stamps the attempt count on a copy: Classify passes
// already-classified errors through by pointer, and a shared sentinel must
// not be mutated in place.
func wrapAttempts(err error, attempts int) *common.AppError {
	classified := *common.Classify(err)
	classified.Attempts = attempts
	return &classified
}
