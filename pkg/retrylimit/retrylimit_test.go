package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		RateLimitDelay: time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastConfig(10))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFatalErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: errors.New("bad request")}
	}, nil, fastConfig(10))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestMaxAttemptsExceeded(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return errors.New("always failing")
	}, nil, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := WithRetryConfig(ctx, func() error {
		cancel()
		return errors.New("failing")
	}, nil, fastConfig(100))

	require.ErrorIs(t, err, context.Canceled)
}

type statusErr int

func (e statusErr) Error() string   { return "http error" }
func (e statusErr) StatusCode() int { return int(e) }

func TestRateLimitErrorShrinksLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)
	before := lim.CurrentLimit()

	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls == 1 {
			return statusErr(429)
		}
		return nil
	}, lim, fastConfig(5))

	require.NoError(t, err)
	assert.Less(t, lim.CurrentLimit(), before+1) // shrunk then one step up
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 4, 1, 0.5)

	for i := 0; i < 10; i++ {
		lim.Success()
	}
	assert.InDelta(t, 4, lim.CurrentLimit(), 0.01)

	for i := 0; i < 10; i++ {
		lim.RateLimited()
	}
	assert.InDelta(t, 1, lim.CurrentLimit(), 0.01)
}
