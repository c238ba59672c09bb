// Package jobqueue provides the in-process queue feeding Runner workers.
package jobqueue

import (
	"context"
	"time"
)

// JobFunc is the unit of work carried by a Job.
type JobFunc func(ctx context.Context) error

// Job is a queued unit of work together with its completion channel.
type Job struct {
	ID         string
	Name       string
	Fn         JobFunc
	EnqueuedAt time.Time

	// Done receives the job's result exactly once. It is buffered so a
	// worker can deliver the result even if nobody is listening yet.
	Done chan error
}

// Queue is a FIFO job queue backed by a buffered channel.
// It is safe for concurrent use.
type Queue struct {
	ch chan Job
}

// New creates a queue with the given capacity.
// For tests and small deployments, a modest capacity (e.g. 1024) is fine.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		ch: make(chan Job, capacity),
	}
}

// Enqueue adds a job, blocking while the queue is full. Blocking on a full
// queue is the backpressure point for submitters.
func (q *Queue) Enqueue(ctx context.Context, j Job) error {
	select {
	case q.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest job, blocking until one is available or ctx
// is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case j := <-q.ch:
		return &j, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.ch)
}
