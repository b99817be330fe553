package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries int) resilience.Config {
	return resilience.Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestRetryWithBackoff_FirstTry(t *testing.T) {
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_RecoversAfterFailures(t *testing.T) {
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	boom := errors.New("still down")
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(2), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls, "first try plus two retries")
}

func TestRetryWithBackoff_ZeroRetries(t *testing.T) {
	calls := 0
	_ = resilience.RetryWithBackoff(context.Background(), fastConfig(0), func() error {
		calls++
		return errors.New("nope")
	})
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := resilience.RetryWithBackoff(ctx, fastConfig(5), func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithBackoff_Permanent(t *testing.T) {
	rejected := errors.New("bad request")
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), fastConfig(5), func() error {
		calls++
		return resilience.Permanent(rejected)
	})
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, "bad request", err.Error())
	assert.Equal(t, 1, calls)
	assert.NoError(t, resilience.Permanent(nil))
}

func TestConfig_Backoff(t *testing.T) {
	cfg := resilience.Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	first := cfg.Backoff(0)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 150*time.Millisecond)

	third := cfg.Backoff(2)
	assert.GreaterOrEqual(t, third, 400*time.Millisecond)
	assert.Less(t, third, 600*time.Millisecond)

	assert.Equal(t, time.Second, cfg.Backoff(10))
	assert.Equal(t, time.Second, cfg.Backoff(80))
}

func TestCircuitBreaker_HealthyErrorsKeepItClosed(t *testing.T) {
	conflict := errors.New("conflict")
	cb := resilience.NewCircuitBreaker(resilience.BreakerSettings{
		Name:         "healthy",
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, conflict) },
	})

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, conflict })
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_TripsAndReports(t *testing.T) {
	var opened atomic.Bool
	cb := resilience.NewCircuitBreaker(resilience.BreakerSettings{
		Name:        "trip",
		MinRequests: 3,
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				opened.Store(true)
			}
		},
	})

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, errors.New("connection refused") })
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.True(t, opened.Load())

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBulkhead(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	require.NoError(t, bh.Acquire(context.Background()))
	require.NoError(t, bh.Acquire(context.Background()))
	assert.Equal(t, 2, bh.InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bh.Acquire(ctx), context.DeadlineExceeded)

	bh.Release()
	assert.Equal(t, 1, bh.InFlight())
	require.NoError(t, bh.Acquire(context.Background()))
}

func TestBulkhead_AtLeastOneSlot(t *testing.T) {
	bh := resilience.NewBulkhead(0)
	require.NoError(t, bh.Acquire(context.Background()))
	bh.Release()
}
