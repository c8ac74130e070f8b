package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func withRecordedSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleepFunc = orig })
	return &slept
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	slept := withRecordedSleep(t)

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Second, Retryable: isTransient}, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no sleeps, got %v", *slept)
	}
}

func TestDo_TransientThenSuccess(t *testing.T) {
	slept := withRecordedSleep(t)

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Second, Retryable: isTransient}, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Errorf("Expected backoff %v, got %v", want, *slept)
	}
}

func TestDo_Exhausted(t *testing.T) {
	withRecordedSleep(t)

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: isTransient}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Expected wrapped transient error, got %v", err)
	}
	var attemptsErr *AttemptsError
	if !errors.As(err, &attemptsErr) || attemptsErr.Attempts != 3 {
		t.Errorf("Expected AttemptsError with 3 attempts, got %v", err)
	}
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	slept := withRecordedSleep(t)

	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Second, Retryable: isTransient}, func(ctx context.Context, attempt int) error {
		calls++
		return errFatal
	})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if err != errFatal {
		t.Errorf("Expected fatal error unchanged, got %v", err)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no sleeps, got %v", *slept)
	}
}

func TestDo_NilRetryableNeverRetries(t *testing.T) {
	withRecordedSleep(t)

	calls := 0
	_ = Do(context.Background(), Policy{MaxAttempts: 3}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Hour, Retryable: isTransient}, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errTransient
	})

	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Expected last provider error, got %v", err)
	}
}

func TestPolicy_Backoff(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"zero base", Policy{}, 3, 0},
		{"first", Policy{BaseDelay: time.Second}, 0, time.Second},
		{"doubles", Policy{BaseDelay: time.Second}, 2, 4 * time.Second},
		{"custom multiplier", Policy{BaseDelay: time.Second, Multiplier: 3}, 2, 9 * time.Second},
		{"capped", Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}, 4, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Backoff(tt.attempt); got != tt.want {
				t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}
