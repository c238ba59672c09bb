// Package throttle provides a bounded-parallelism gate.
//
// A Throttle limits how many pieces of work run at the same time. Callers
// acquire a slot before starting guarded work and release it afterwards;
// with N slots, at most N guarded sections execute concurrently. Waiters
// are woken in FIFO order, so submission order into the wait queue is
// preserved even though no ordering is guaranteed among the N running
// sections themselves.
package throttle

import (
	"context"
	"sync"
)

// Throttle is a bounded-parallelism gate with FIFO waiters.
// It is safe for concurrent use.
type Throttle struct {
	mu      sync.Mutex
	size    int
	slots   int
	waiters []chan struct{}
}

// New creates a Throttle with n slots. n <= 0 is treated as 1.
func New(n int) *Throttle {
	if n <= 0 {
		n = 1
	}
	return &Throttle{size: n, slots: n}
}

// Size returns the configured concurrency ceiling.
func (t *Throttle) Size() int {
	return t.size
}

// InFlight returns the number of slots currently held.
func (t *Throttle) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size - t.slots
}

// Acquire obtains a slot, suspending the caller until one is available or
// ctx is cancelled. Waiters are served in arrival order.
//
// Every successful Acquire must be paired with exactly one Release; prefer
// Do, which guarantees the pairing.
func (t *Throttle) Acquire(ctx context.Context) error {
	t.mu.Lock()
	if err := ctx.Err(); err != nil {
		t.mu.Unlock()
		return err
	}
	if t.slots > 0 && len(t.waiters) == 0 {
		t.slots--
		t.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	t.waiters = append(t.waiters, ready)
	t.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		t.mu.Lock()
		select {
		case <-ready:
			// Lost the race: a slot was already granted to this waiter.
			// Hand it back so the next waiter is not starved.
			t.mu.Unlock()
			t.Release()
		default:
			t.removeWaiter(ready)
			t.mu.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire obtains a slot without waiting. It reports whether a slot was
// acquired. It never jumps ahead of queued waiters.
func (t *Throttle) TryAcquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots > 0 && len(t.waiters) == 0 {
		t.slots--
		return true
	}
	return false
}

// Release returns a slot and wakes the first waiter, if any.
// Releasing more slots than were acquired panics.
func (t *Throttle) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.waiters) > 0 {
		ready := t.waiters[0]
		t.waiters = t.waiters[1:]
		close(ready)
		return
	}
	if t.slots >= t.size {
		panic("throttle: Release without matching Acquire")
	}
	t.slots++
}

// Do runs fn while holding a slot. The slot is released on every exit path,
// including panics and cancellation inside fn.
func (t *Throttle) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := t.Acquire(ctx); err != nil {
		return err
	}
	defer t.Release()
	return fn(ctx)
}

// caller must hold t.mu.
func (t *Throttle) removeWaiter(ready chan struct{}) {
	for i, w := range t.waiters {
		if w == ready {
			t.waiters = append(t.waiters[:i], t.waiters[i+1:]...)
			return
		}
	}
}
