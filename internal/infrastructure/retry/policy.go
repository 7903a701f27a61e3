package retry

import (
	"context"
	"time"
)

// Policy controls how an operation is retried. Backoff maps the 1-based
// attempt number to the delay before the next attempt. Permanent short
// circuits the loop for errors that retrying cannot fix.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Permanent   func(err error) bool
}

// LinearBackoff returns a backoff growing by base per attempt, so attempt 1
// waits base, attempt 2 waits 2*base and so on
func LinearBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Default is the policy used for transient lookup failures during bulk
// reconciliation, three attempts with linear one second backoff
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
	}
}

// Do runs fn until it succeeds, fails permanently, or the attempts are
// exhausted. The delay between attempts respects context cancellation. The
// last error is returned when all attempts fail.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}
