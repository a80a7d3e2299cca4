// Package resilience retries startup operations against external stores
// (PostgreSQL, Redis) that may not be reachable the moment the search server
// boots.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff describes an exponential retry schedule.
type Backoff struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

// DefaultBackoff is used for any zero field of a caller's Backoff.
var DefaultBackoff = Backoff{
	MaxAttempts:    5,
	InitialDelay:   200 * time.Millisecond,
	MaxDelay:       5 * time.Second,
	Multiplier:     2.0,
	JitterFraction: 0.1,
}

func (b Backoff) withDefaults() Backoff {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = DefaultBackoff.MaxAttempts
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = DefaultBackoff.InitialDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = DefaultBackoff.MaxDelay
	}
	if b.Multiplier < 1 {
		b.Multiplier = DefaultBackoff.Multiplier
	}
	if b.JitterFraction < 0 || b.JitterFraction >= 1 {
		b.JitterFraction = DefaultBackoff.JitterFraction
	}
	return b
}

// Delay returns the pause before retry number attempt (1-based), without
// jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.withDefaults()
	d := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if d > float64(b.MaxDelay) {
		d = float64(b.MaxDelay)
	}
	return time.Duration(d)
}

func (b Backoff) jittered(attempt int) time.Duration {
	d := float64(b.Delay(attempt))
	d += d * b.JitterFraction * (2*rand.Float64() - 1)
	return time.Duration(d)
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done.
func Retry(ctx context.Context, name string, b Backoff, fn func(context.Context) error) error {
	b = b.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)

	var lastErr error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if attempt == b.MaxAttempts {
			break
		}
		delay := b.jittered(attempt)
		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", b.MaxAttempts,
			"error", lastErr,
			"next_delay", delay,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", name, b.MaxAttempts, lastErr)
}
