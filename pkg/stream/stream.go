// Package stream implements a lazy, cancellable producer/consumer sequence.
//
// Produce starts a producer goroutine that emits a finite number of items,
// one at a time, with a simulated delay before each. The hand-off is
// unbuffered, so the consumer observes and can act on each item before the
// next one is produced. This is the shape of a streaming telemetry or log
// source where partial data matters and a long production must be abortable.
//
// Consumption follows the scanner idiom and distinguishes three outcomes
// per step: another item (Next reports true), end of sequence (Next reports
// false, Err is nil), and cancellation (Next reports false, Err is
// non-nil). Cancellation is never silent truncation.
package stream

import (
	"context"
	"time"
)

// Stream is a lazy, finite sequence of items. A Stream is consumed by a
// single goroutine; create a fresh one per consumption (it is not
// restartable).
type Stream[T any] struct {
	ch  <-chan T
	err func() error

	cur  T
	done bool
	fail error
}

// Produce starts producing count items, calling gen(i) for i in [0,count).
// Before each item the producer waits for delay and checks ctx; once
// cancellation is observed, production stops and the consumer's iteration
// ends with the cancellation cause instead of a value.
func Produce[T any](ctx context.Context, count int, delay time.Duration, gen func(i int) T) *Stream[T] {
	ch := make(chan T) // unbuffered: one item in flight at most
	var cause error

	go func() {
		defer close(ch)
		for i := 0; i < count; i++ {
			// Checkpoint before producing each item.
			if ctx.Err() != nil {
				cause = context.Cause(ctx)
				return
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					cause = context.Cause(ctx)
					return
				}
			}
			select {
			case ch <- gen(i):
			case <-ctx.Done():
				cause = context.Cause(ctx)
				return
			}
		}
	}()

	return &Stream[T]{
		ch: ch,
		// cause is written before ch is closed, and read only after the
		// close is observed, so the access is ordered.
		err: func() error { return cause },
	}
}

// Next advances to the next item. It reports false when the sequence has
// ended, either by exhaustion or by cancellation; consult Err to tell the
// two apart.
func (s *Stream[T]) Next() bool {
	if s.done {
		return false
	}
	v, ok := <-s.ch
	if !ok {
		s.done = true
		s.fail = s.err()
		var zero T
		s.cur = zero
		return false
	}
	s.cur = v
	return true
}

// Value returns the item produced by the last successful Next.
func (s *Stream[T]) Value() T {
	return s.cur
}

// Err returns nil after a clean end of sequence, and the cancellation
// cause if production was cancelled.
func (s *Stream[T]) Err() error {
	return s.fail
}

// Collect drains the stream and returns all items it yielded. On
// cancellation it returns the items observed so far along with the
// cancellation cause.
func Collect[T any](s *Stream[T]) ([]T, error) {
	var items []T
	for s.Next() {
		items = append(items, s.Value())
	}
	return items, s.Err()
}
