package retry

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError records an attempt that exceeded its budget.
// It is absorbed and retried until attempts are exhausted.
type TimeoutError struct {
	Attempt int
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("retry: attempt %d exceeded budget of %v", e.Attempt, e.Budget)
}

// Is lets errors.Is(err, context.DeadlineExceeded) match a TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// ExhaustedError is returned by Do when every attempt has failed.
// It carries the last underlying cause, reachable via errors.Unwrap.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do runs work until it succeeds, the policy's attempts are exhausted, or
// ctx is cancelled.
//
// Each attempt invokes work with a context carrying the per-attempt
// timeout, racing the work against an independent timer. If the timer
// fires first the attempt counts as a TimeoutError and the abandoned
// work's eventual result is discarded safely. Between failed attempts Do
// sleeps according to the policy's backoff schedule; the sleep is
// context-aware.
//
// Cancellation of ctx is reported as ctx's error, never as an
// ExhaustedError, so callers can distinguish "gave up" from "was told to
// stop".
func Do[T any](ctx context.Context, p Policy, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if work == nil {
		panic("retry: nil work")
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	backoff := p.InitialBackoff
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := runAttempt(ctx, p.AttemptTimeout, attempt, work)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		if backoff > 0 {
			delay := backoff
			if p.MaxBackoff > 0 && delay > p.MaxBackoff {
				delay = p.MaxBackoff
			}
			select {
			case <-time.After(delay):
				// continue to next attempt
			case <-ctx.Done():
				return zero, ctx.Err()
			}

			next := time.Duration(float64(backoff) * multiplier)
			if p.MaxBackoff > 0 && next > p.MaxBackoff {
				backoff = p.MaxBackoff
			} else {
				backoff = next
			}
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

type attemptResult[T any] struct {
	value T
	err   error
}

func runAttempt[T any](ctx context.Context, budget time.Duration, attempt int, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if budget > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	// Buffered so an abandoned attempt can deliver its result and exit
	// instead of leaking a blocked goroutine.
	resCh := make(chan attemptResult[T], 1)
	go func() {
		v, err := work(attemptCtx)
		resCh <- attemptResult[T]{value: v, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return zero, &TimeoutError{Attempt: attempt, Budget: budget}
			}
			return zero, res.err
		}
		return res.value, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &TimeoutError{Attempt: attempt, Budget: budget}
	}
}
