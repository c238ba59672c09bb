// Package guard provides a mutex-protected shared counter, together with a
// deliberately unguarded variant that demonstrates the lost-update race it
// protects against.
package guard

import (
	"runtime"
	"sync"
)

// Counter is an integer shared between concurrent workers.
//
// IncrementGuarded performs the read-modify-write inside a critical section
// and is safe for concurrent use: K workers each doing M increments always
// end at exactly K*M.
//
// IncrementUnsafe exists only to demonstrate the race; its result under
// concurrency is non-deterministic and must not be relied upon.
type Counter struct {
	mu    sync.Mutex
	value int64
}

// IncrementGuarded atomically increments the counter by one.
func (c *Counter) IncrementGuarded() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

// Add atomically adds delta to the counter.
func (c *Counter) Add(delta int64) {
	c.mu.Lock()
	c.value += delta
	c.mu.Unlock()
}

// IncrementUnsafe performs a non-atomic read-modify-write.
//
// The explicit local copy plus the scheduler yield widen the window between
// read and write so that concurrent callers reliably lose updates, the same
// way an unsynchronized counter does in production under enough load.
// Demonstration only.
func (c *Counter) IncrementUnsafe() {
	v := c.value
	runtime.Gosched()
	c.value = v + 1
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.value = 0
	c.mu.Unlock()
}
