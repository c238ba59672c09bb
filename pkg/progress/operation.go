// Package progress implements a cancellable multi-step operation with
// fractional progress reporting.
//
// An Operation executes a fixed number of work units on its own goroutine,
// reporting progress as an integer percentage after each unit. Cancellation
// is cooperative: Cancel only requests it, and the operation honors the
// request at its next checkpoint, before starting another unit.
package progress

import (
	"context"
	"errors"
	"math"
	"sync"
)

// State is the lifecycle state of an Operation.
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateCancelled State = "CANCELLED"
	StateFailed    State = "FAILED"
)

// Terminal reports whether s is one of the absorbing end states.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// ErrAlreadyRunning is returned by Start while the operation is running.
// Terminal states must be cleared with Reset before starting again.
var ErrAlreadyRunning = errors.New("progress: operation already running")

// StepFunc performs one unit of work. step is 1-based.
type StepFunc func(ctx context.Context, step int) error

// Poster delivers callbacks onto a controller loop in posting order.
type Poster interface {
	Post(fn func()) error
}

// Option configures an Operation.
type Option func(*Operation)

// WithPoster routes progress reports through the given Poster so the sink
// observes them in order on the controller loop. Without a poster, the sink
// is invoked inline from the operation goroutine.
func WithPoster(p Poster) Option {
	return func(op *Operation) { op.poster = p }
}

// Operation is a long-running job of totalSteps discrete units.
//
// Lifecycle: Idle -> Running -> {Completed | Cancelled | Failed}. Terminal
// states are absorbing until Reset. Progress percentages are monotonically
// non-decreasing while running; once cancellation is observed, no further
// units run and no further progress is reported.
type Operation struct {
	totalSteps int
	work       StepFunc
	poster     Poster

	mu      sync.Mutex
	state   State
	err     error
	cancel  context.CancelFunc
	release *sync.Once
	done    chan struct{}
}

// New creates an Operation that will run work once per step.
// It panics if totalSteps <= 0 or work is nil.
func New(totalSteps int, work StepFunc, opts ...Option) *Operation {
	if totalSteps <= 0 {
		panic("progress: totalSteps must be positive")
	}
	if work == nil {
		panic("progress: nil work")
	}
	op := &Operation{
		totalSteps: totalSteps,
		work:       work,
		state:      StateIdle,
	}
	for _, o := range opts {
		o(op)
	}
	return op
}

// TotalSteps returns the configured number of work units.
func (op *Operation) TotalSteps() int {
	return op.totalSteps
}

// State returns the current lifecycle state.
func (op *Operation) State() State {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state
}

// Err returns the failure cause after StateFailed, the cancellation cause
// after StateCancelled, and nil otherwise.
func (op *Operation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

// Done returns a channel closed when the current run reaches a terminal
// state. It returns nil if the operation has not been started.
func (op *Operation) Done() <-chan struct{} {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.done
}

// Start begins executing the operation on a new goroutine.
//
// sink receives the progress percentage (0-100) after each completed unit;
// it may be nil. Start returns ErrAlreadyRunning if the operation is
// currently running, and also if it sits in an un-Reset terminal state, so
// that a stale completion can never be confused with a fresh run.
func (op *Operation) Start(ctx context.Context, sink func(percent int)) error {
	op.mu.Lock()
	if op.state != StateIdle {
		op.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	op.state = StateRunning
	op.err = nil
	op.cancel = cancel
	op.release = new(sync.Once)
	op.done = make(chan struct{})
	done := op.done
	op.mu.Unlock()

	go func() {
		defer close(done)
		op.run(runCtx, sink)
	}()
	return nil
}

// Cancel requests cooperative cancellation of the current run. It is
// idempotent, safe to call from any goroutine, and a no-op when the
// operation is not running. The operation itself decides, at its next
// checkpoint, to honor the request.
func (op *Operation) Cancel() {
	op.mu.Lock()
	cancel := op.cancel
	op.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset returns a terminal operation to StateIdle so it can run again.
// Resetting a running operation panics.
func (op *Operation) Reset() {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.state == StateRunning {
		panic("progress: Reset while running")
	}
	op.state = StateIdle
	op.err = nil
	op.done = nil
}

func (op *Operation) run(ctx context.Context, sink func(percent int)) {
	for i := 1; i <= op.totalSteps; i++ {
		// Checkpoint: observe cancellation before starting the next unit.
		if err := ctx.Err(); err != nil {
			op.finish(StateCancelled, context.Cause(ctx))
			return
		}

		if err := op.work(ctx, i); err != nil {
			if errors.Is(err, context.Canceled) {
				op.finish(StateCancelled, err)
				return
			}
			op.finish(StateFailed, err)
			return
		}

		op.report(sink, percent(i, op.totalSteps))
	}
	op.finish(StateCompleted, nil)
}

func (op *Operation) finish(s State, err error) {
	op.mu.Lock()
	op.state = s
	op.err = err
	cancel := op.cancel
	release := op.release
	op.cancel = nil
	op.mu.Unlock()

	// Release the cancellation source exactly once per run, whichever
	// terminal transition gets here.
	release.Do(cancel)
}

func (op *Operation) report(sink func(percent int), pct int) {
	if sink == nil {
		return
	}
	if op.poster != nil {
		_ = op.poster.Post(func() { sink(pct) })
		return
	}
	sink(pct)
}

func percent(step, total int) int {
	return int(math.Round(float64(step) / float64(total) * 100))
}
