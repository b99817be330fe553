// Package resilience guards calls to the remote API: capped exponential
// backoff, a circuit breaker that only trips on transport trouble, and a
// bulkhead bounding concurrent requests.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds retry and concurrency parameters for remote calls.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxConcurrency int
}

// Backoff returns the wait before retry number attempt (0-based): the
// initial backoff doubled per attempt plus up to 50% jitter, capped at
// MaxBackoff (one hour when unset).
func (c Config) Backoff(attempt int) time.Duration {
	ceiling := c.MaxBackoff
	if ceiling <= 0 {
		ceiling = time.Hour
	}

	wait := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		if wait >= ceiling {
			break
		}
		wait *= 2
	}
	if half := int64(wait / 2); half > 0 {
		wait += time.Duration(rand.Int63n(half))
	}
	return min(wait, ceiling)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. RetryWithBackoff returns the
// wrapped error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff calls fn until it succeeds, returns a Permanent error,
// ctx ends, or MaxRetries retries have been spent.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= cfg.MaxRetries {
			return err
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// BreakerSettings configures NewCircuitBreaker. Zero values take the
// defaults noted on each field.
type BreakerSettings struct {
	Name string
	// MinRequests before the failure ratio is considered (default 5).
	MinRequests uint32
	// FailureRatio that trips the breaker (default 0.6).
	FailureRatio float64
	// OpenTimeout before an open breaker lets probes through (default 10s).
	OpenTimeout time.Duration
	// IsSuccessful reports errors that still prove the remote healthy, such
	// as a 409. Nil counts every error as a failure.
	IsSuccessful func(error) bool
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// NewCircuitBreaker builds a breaker from s. Counts reset every 30s while
// closed; half-open admits 3 probes.
func NewCircuitBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 10 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful:  s.IsSuccessful,
		OnStateChange: s.OnStateChange,
	})
}

// Bulkhead bounds the number of concurrent remote calls.
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead creates a bulkhead admitting n concurrent holders (at least
// one).
func NewBulkhead(n int) *Bulkhead {
	return &Bulkhead{slots: make(chan struct{}, max(n, 1))}
}

// Acquire waits for a slot or for ctx to end.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.slots
}

// InFlight is the number of slots currently held.
func (b *Bulkhead) InFlight() int {
	return len(b.slots)
}
