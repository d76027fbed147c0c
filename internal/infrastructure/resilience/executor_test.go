package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestDefaultConfigMakesSingleAttempt(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	attempts := 0
	errTemp := errors.New("backend down")
	err := exec.Execute(context.Background(), "backend.chat", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestExecuteRetriesTemporaryFailureWhenConfigured(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "backend.list_sessions", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "backend.upload_files", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	var transitions []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
		OnStateChange: func(operation, from, to string) {
			transitions = append(transitions, operation+":"+from+"->"+to)
		},
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "backend.get_session", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "backend.get_session", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !IsCircuitOpen(err) || !exec.Degraded() {
		t.Fatalf("expected degraded executor")
	}
	if got := exec.States()["backend.get_session"]; got != gobreaker.StateOpen.String() {
		t.Fatalf("state = %q", got)
	}
	if len(transitions) != 1 || transitions[0] != "backend.get_session:closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	exec := NewExecutor(Config{
		BreakerEnabled:     true,
		BreakerMinRequests: 2,
	})
	errClient := errors.New("404")
	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), "backend.get_session", func(context.Context) error {
			return errClient
		}, func(error) ErrorClassification {
			return ErrorClassification{RecordFailure: false}
		})
	}
	if exec.Degraded() {
		t.Fatalf("4xx answers must not open the breaker")
	}
}

func TestBackoffGrowsUpToCap(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     300 * time.Millisecond,
		RetryMultiplier:     2,
	})
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := exec.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Second,
		BreakerEnabled:      false,
	})
	ctx, cancel := context.WithCancel(context.Background())
	errTemp := errors.New("temporary")

	attempts := 0
	err := exec.Execute(ctx, "backend.chat", func(context.Context) error {
		attempts++
		cancel()
		return errTemp
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last call error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected no retry after cancellation, got %d attempts", attempts)
	}
}
