// Package retry provides the single retry policy shared by every outbound
// provider and fetch call.
package retry

import (
	"context"
	"fmt"
	"time"
)

// sleepFunc waits for d or until ctx is done (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy describes how many times and how fast to retry
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff (0 = uncapped)
	MaxDelay time.Duration

	// Multiplier grows the delay per attempt (defaults to 2)
	Multiplier float64

	// Retryable decides whether an error is transient. nil means never retry.
	Retryable func(error) bool
}

// Backoff returns the delay before the attempt following attempt (0-based)
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	multiplier := p.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}

	delay := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= multiplier
		if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}

	return time.Duration(delay)
}

// AttemptsError wraps the last error once retries are exhausted
type AttemptsError struct {
	Attempts int
	Err      error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error {
	return e.Err
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. attempt is 0-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		if attempt < maxAttempts-1 {
			if sleepErr := sleepFunc(ctx, p.Backoff(attempt)); sleepErr != nil {
				return err
			}
		}
	}

	if maxAttempts == 1 {
		return err
	}
	return &AttemptsError{Attempts: maxAttempts, Err: err}
}
