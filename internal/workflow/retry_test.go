package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvjob-dk/cvjob-backend/internal/common"
)

func retryableErr(msg string) error {
	return common.NewAppError(common.KindNetwork, msg, nil)
}

func TestRetrySucceedsAfterTwoFailures(t *testing.T) {
	calls := 0
	var retries []int
	var waits []time.Duration
	last := time.Now()

	err := Retry(context.Background(), func(ctx context.Context) error {
		now := time.Now()
		waits = append(waits, now.Sub(last))
		last = now
		calls++
		if calls <= 2 {
			return retryableErr("flaky")
		}
		return nil
	}, RetryOptions{
		MaxRetries:   3,
		InitialDelay: 20 * time.Millisecond,
		OnRetry:      func(err error, attempt int) { retries = append(retries, attempt) },
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries, "onRetry fires exactly once per retry")

	// Delays grow strictly exponentially: initialDelay, then 2x.
	require.Len(t, waits, 3)
	assert.GreaterOrEqual(t, waits[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, waits[2], 40*time.Millisecond)
}

func TestRetryBudgetExhaustion(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return retryableErr("always down")
	}, RetryOptions{MaxRetries: 3, InitialDelay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "1 initial + 3 retries")

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 4, appErr.Attempts)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, common.KindNetwork, appErr.Kind)
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	cause := common.NewAppError(common.KindValidation, "bad input", common.ErrInvalidInput)
	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	}, RetryOptions{MaxRetries: 3, InitialDelay: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	// Even a first-attempt failure comes back classified with an attempt
	// count - callers always receive the uniform wrapper.
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.Attempts)
	assert.False(t, appErr.Retryable)
}

func TestRetryLeavesSharedErrorUntouched(t *testing.T) {
	shared := common.NewAppError(common.KindNetwork, "db down", nil)
	err := Retry(context.Background(), func(ctx context.Context) error {
		return shared
	}, RetryOptions{MaxRetries: 2, InitialDelay: time.Millisecond})

	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 3, appErr.Attempts)

	// The attempt count lands on a copy; the reusable error itself must
	// not be written to.
	assert.Equal(t, 0, shared.Attempts)
	assert.NotSame(t, shared, appErr)
}

func TestRetryCustomPredicate(t *testing.T) {
	calls := 0
	sentinel := errors.New("weird")
	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	}, RetryOptions{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		ShouldRetry:  func(err error) bool { return errors.Is(err, sentinel) },
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnRetryDoesNotAffectControlFlow(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return retryableErr("once")
		}
		return nil
	}, RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		OnRetry:      func(err error, attempt int) { panicIfNil(t, err) },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func panicIfNil(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("onRetry called without an error")
	}
}

func TestRetryAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, func(ctx context.Context) error {
		calls++
		return retryableErr("down")
	}, RetryOptions{MaxRetries: 5, InitialDelay: time.Second})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation interrupts the first wait")
}
