// Package command implements a single-flight command: an asynchronous action
// guarded against re-entrant invocation.
//
// A Command wraps a zero-argument action plus an optional eligibility
// predicate. While the action is executing the command reports itself as not
// runnable, and further Run calls are rejected locally without touching the
// action. Observers are notified before and after execution so dependent
// state (typically a UI enabling/disabling a button) can re-query CanRun.
package command

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrAlreadyRunning is returned by Run while a previous invocation of
	// the action is still in flight. It is an expected, local condition;
	// callers that treat Run as fire-and-retry may ignore it.
	ErrAlreadyRunning = errors.New("command: already running")

	// ErrNotEligible is returned by Run when the eligibility predicate
	// reports false.
	ErrNotEligible = errors.New("command: not eligible to run")
)

// Action is the unit of work wrapped by a Command.
type Action func(ctx context.Context) error

// Poster delivers callbacks onto a controller loop in posting order.
// See the serial package for the standard implementation.
type Poster interface {
	Post(fn func()) error
}

// Option configures a Command.
type Option func(*Command)

// WithPredicate adds an eligibility predicate consulted by CanRun.
// A nil predicate means always eligible.
func WithPredicate(p func() bool) Option {
	return func(c *Command) { c.predicate = p }
}

// WithPoster routes state-changed notifications through the given Poster so
// listeners observe them in order on the controller loop. Without a poster,
// listeners are invoked inline.
func WithPoster(p Poster) Option {
	return func(c *Command) { c.poster = p }
}

// WithListener registers a state-changed listener. Listeners are invoked
// whenever the result of CanRun may have changed: once when the action
// starts and once when it finishes.
func WithListener(fn func()) Option {
	return func(c *Command) { c.listeners = append(c.listeners, fn) }
}

// Command guards an action against concurrent invocation.
// It is safe for concurrent use and intended to be long-lived.
type Command struct {
	mu        sync.Mutex
	running   bool
	action    Action
	predicate func() bool
	poster    Poster
	listeners []func()
}

// New creates a Command for the given action.
// It panics if action is nil.
func New(action Action, opts ...Option) *Command {
	if action == nil {
		panic("command: nil action")
	}
	c := &Command{action: action}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanRun reports whether Run would start the action right now: the action
// must not already be executing and the predicate, if any, must be true.
func (c *Command) CanRun() bool {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		return false
	}
	return c.predicate == nil || c.predicate()
}

// IsRunning reports whether the action is currently executing.
func (c *Command) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run executes the action and waits for it to finish.
//
// If the command is busy it returns ErrAlreadyRunning; if the predicate
// rejects it returns ErrNotEligible. In both cases the action is not
// invoked. Otherwise the command is marked busy, listeners are notified,
// the action runs, and the busy flag is cleared on every exit path
// (including a panicking action) before listeners are notified again.
// An error from the action propagates to the caller.
func (c *Command) Run(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()
	return c.action(ctx)
}

// RunAsync starts the action on its own goroutine and returns a channel
// that receives the action's result exactly once.
//
// Unlike a bare "go cmd.Run(ctx)", the returned channel makes the
// completion observable so failures cannot be silently dropped. When the
// command is busy or not eligible, the corresponding error is delivered on
// the channel without starting the action, and started is false.
func (c *Command) RunAsync(ctx context.Context) (done <-chan error, started bool) {
	ch := make(chan error, 1)
	if err := c.begin(); err != nil {
		ch <- err
		return ch, false
	}
	go func() {
		defer c.end()
		ch <- c.action(ctx)
	}()
	return ch, true
}

func (c *Command) begin() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.predicate != nil && !c.predicate() {
		c.mu.Unlock()
		return ErrNotEligible
	}
	c.running = true
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *Command) end() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.notify()
}

func (c *Command) notify() {
	for _, fn := range c.listeners {
		if c.poster != nil {
			// Post errors only occur after the loop is stopped; at that
			// point there is no observer left to notify.
			_ = c.poster.Post(fn)
			continue
		}
		fn()
	}
}
