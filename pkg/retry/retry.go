// Package retry implements a bounded retry policy for fallible remote calls.
package retry

import (
	"context"
	"time"
)

// Policy bounds retries for one logical operation. Backoff maps the attempt
// number (starting at 1) to the delay before the next attempt.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Default returns a policy suited to short HTTP calls: 3 attempts with
// exponential backoff (500ms, 1s).
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(500<<uint(attempt-1)) * time.Millisecond
		},
	}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or ctx is
// done. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
