package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification tells the executor what a failed call means: whether
// trying again may help and whether it counts against the breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Executor runs calls behind one circuit breaker per operation name, with
// optional retries inside the breaker.
type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Execute runs fn for operation. A nil classifier counts every error as a
// non-retryable failure.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier ErrorClassifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil call for %q", operation)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = countAll
	}

	if !e.cfg.BreakerEnabled {
		return e.withRetries(ctx, op, fn, classifier)
	}
	_, err := e.breaker(op, classifier).Execute(func() (struct{}, error) {
		return struct{}{}, e.withRetries(ctx, op, fn, classifier)
	})
	return err
}

func (e *Executor) withRetries(ctx context.Context, op string, fn func(context.Context) error, classifier ErrorClassifier) error {
	var err error
	for attempt := 1; attempt <= e.cfg.RetryMaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == e.cfg.RetryMaxAttempts || !classifier(err).Retryable {
			return err
		}

		wait := e.backoff(attempt)
		e.cfg.Logger.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		if !sleep(ctx, wait) {
			return err
		}
	}
	return err
}

// backoff is the wait after the given failed attempt, growing geometrically
// up to RetryMaxBackoff.
func (e *Executor) backoff(attempt int) time.Duration {
	wait := float64(e.cfg.RetryInitialBackoff) * math.Pow(e.cfg.RetryMultiplier, float64(attempt-1))
	if wait > float64(e.cfg.RetryMaxBackoff) {
		return e.cfg.RetryMaxBackoff
	}
	return time.Duration(wait)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breaker(op string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.breakers[op]; ok {
		return cb
	}

	cfg := e.cfg
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        op,
		MaxRequests: cfg.BreakerHalfOpenMaxCalls,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.BreakerMinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		// Client-side errors (bad input, 4xx) say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from.String(), to.String())
			}
		},
	})
	e.breakers[op] = cb
	return cb
}

// States reports the breaker state of every operation seen so far.
func (e *Executor) States() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.breakers))
	for name, cb := range e.breakers {
		out[name] = cb.State().String()
	}
	return out
}

// Degraded reports whether any breaker is currently open.
func (e *Executor) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cb := range e.breakers {
		if cb.State() == gobreaker.StateOpen {
			return true
		}
	}
	return false
}

// IsCircuitOpen reports a call refused by an open or saturated half-open
// breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func countAll(error) ErrorClassification {
	return ErrorClassification{RecordFailure: true}
}
