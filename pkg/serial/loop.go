// Package serial provides a single-threaded callback loop.
//
// A Loop is the cooperative counterpart to the parallel workers elsewhere in
// weft: callbacks posted to it run one at a time, on a single goroutine, in
// exactly the order they were posted. Controller-side code (UI state, log
// output, progress displays) can rely on that ordering instead of taking
// locks.
package serial

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Post and PostWait after the loop has shut down.
var ErrStopped = errors.New("serial: loop stopped")

// DefaultCapacity is the queue capacity used when none is configured.
// For tests and small deployments a modest capacity is fine.
const DefaultCapacity = 1024

// Loop runs posted callbacks sequentially on a single goroutine.
//
// Callbacks run strictly in the order posted. If one callback blocks, no
// other callback can run; the best practice is not to block.
//
// The zero value is not usable; construct with New.
type Loop struct {
	ch chan func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a Loop with the given queue capacity.
// capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Loop {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Loop{
		ch:   make(chan func(), capacity),
		done: make(chan struct{}),
	}
}

// Start launches the drain goroutine. It returns an error if the loop is
// already running or has been stopped.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return errors.New("serial: loop already started")
	}
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true

	go func() {
		defer close(l.done)
		for {
			select {
			case fn := <-l.ch:
				fn()
			case <-ctx.Done():
				// Drain callbacks already queued so posters that won the
				// race against Stop still get their ordering guarantee.
				for {
					select {
					case fn := <-l.ch:
						fn()
					default:
						return
					}
				}
			}
		}
	}()
	return nil
}

// Post queues fn to run on the loop goroutine. Callbacks posted from the
// same goroutine run in posting order. Post blocks while the queue is full
// and returns ErrStopped once the loop has shut down.
//
// Post is safe for concurrent use.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	// Checked first: a stopped loop may still have queue capacity, and a
	// silently-buffered callback would never run.
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.ch <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// PostWait posts fn and blocks until it has run.
func (l *Loop) PostWait(fn func()) error {
	ran := make(chan struct{})
	err := l.Post(func() {
		defer close(ran)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		// The loop drains queued callbacks on shutdown, so if done is
		// closed and ran is not, fn was dropped mid-drain; report that.
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stop shuts the loop down and waits for already-queued callbacks to run.
// It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	started := l.running
	l.running = false
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		<-l.done
	}
}
