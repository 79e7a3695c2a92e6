package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy defines bounded retry behavior for a transient-failure-prone
// operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// Backoff is the delay before the first retry. Each subsequent retry
	// doubles it, capped at MaxBackoff. A jitter factor of 0.5-1.5 is
	// applied to every delay.
	// Default: 1s
	Backoff time.Duration

	// MaxBackoff caps the backoff growth.
	// Default: 30s
	MaxBackoff time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool

	// Sleep waits for the given duration or until the context is done.
	// Overridden in tests to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns a policy with sensible defaults and no retryable
// predicate (every error retried).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// Do runs fn until it succeeds, the attempt ceiling is reached, a
// non-retryable error occurs, or the context is cancelled. It returns the
// number of attempts made and the error of the final attempt (nil on
// success). Context cancellation during backoff returns the context error.
func (p Policy) Do(ctx context.Context, fn func() error) (attempts int, err error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for attempts = 1; ; attempts++ {
		err = fn()
		if err == nil {
			return attempts, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return attempts, err
		}
		if attempts >= maxAttempts {
			return attempts, err
		}
		if serr := p.sleep(ctx, p.delay(attempts)); serr != nil {
			return attempts, serr
		}
	}
}

// delay computes the backoff duration before retry number attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	d := backoff * time.Duration(1<<uint(attempt-1))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}

	// Jitter: 0.5 to 1.5 of the computed delay.
	return time.Duration(float64(d) * (0.5 + rand.Float64()))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
