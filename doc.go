// Package weft provides a small toolkit of cooperative task-execution and
// synchronization primitives for Go.
//
// Weft is designed for application cores that drive cancellable background
// work from a single controller thread (a UI event loop, a CLI command, a
// test harness) while fanning the heavy lifting out across a bounded pool
// of parallel workers. It runs fully in process and has no operational
// footprint.
//
// # Core Concepts
//
// The weft programming model is intentionally small:
//
//  1. Runner
//  2. Command
//  3. Throttle
//  4. Operation (progress)
//  5. Stream
//  6. Retry
//  7. Loop (serial)
//
// # Runner
//
// The Runner bundles a job queue and a pool of worker goroutines. Every
// submitted job gets a Handle with an observable completion channel: there
// is deliberately no fire-and-forget submission, so failures can never be
// silently swallowed. Workers can be bounded with a parallelism ceiling and
// report lifecycle events to an Observer (logging, metrics, or both).
//
// # Command
//
// A command.Command guards an asynchronous action against re-entrant
// invocation: at most one execution is in flight at a time, re-runs are
// rejected locally, and state-changed notifications fire before and after
// each execution so callers can re-query runnability.
//
// # Throttle
//
// A throttle.Throttle is a bounded-parallelism gate with FIFO waiters.
// With N slots, at most N guarded sections run concurrently; the usage
// pattern is always Acquire, then scoped work, then a guaranteed Release.
// The Do helper enforces the pairing.
//
// # Operation
//
// A progress.Operation is a multi-step long-running job with fractional
// progress reporting and cooperative cancellation: Cancel only requests,
// the operation honors the request at its next checkpoint, and the
// terminal outcome (Completed, Cancelled, Failed) is always distinct.
//
// # Stream
//
// A stream.Stream is a lazy producer/consumer sequence with per-item delay
// and cancellation propagation. The consumer distinguishes three outcomes
// per step: next item, end of sequence, cancellation.
//
// # Retry
//
// retry.Do races a unit of work against a per-attempt timeout and retries
// failures with exponential backoff, surfacing a typed ExhaustedError that
// wraps the last cause once attempts run out.
//
// # Loop
//
// A serial.Loop is the cooperative controller thread: callbacks posted to
// it run one at a time in exactly the order posted. Commands and
// operations can route their notifications through a Loop so UI-side state
// observes changes in submission order.
//
// # Summary
//
// Weft's goal is to make the concurrency-correctness concerns of an
// application core (races, bounded parallelism, cooperative cancellation,
// backpressure) explicit, testable objects instead of ambient conventions.
//
// For runnable demonstrations, see the examples directory.
package weft
