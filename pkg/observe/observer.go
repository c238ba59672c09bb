// Package observe provides lifecycle observers for jobs run by the weft
// Runner: logging, metrics, and fan-out composition.
package observe

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Job identifies a unit of work submitted to a Runner.
type Job struct {
	// ID is unique per submission.
	ID string
	// Name is the caller-supplied label for the job.
	Name string
}

// Observer receives callbacks from the Runner for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay job execution.
type Observer interface {
	// OnJobStart is called once when a job begins executing, after it has
	// been dequeued and admitted past any parallelism gate.
	OnJobStart(ctx context.Context, job Job)

	// OnJobCompleted is called when a job's function returns nil.
	OnJobCompleted(ctx context.Context, job Job, duration time.Duration)

	// OnJobFailed is called when a job's function returns an error,
	// including context cancellation.
	OnJobFailed(ctx context.Context, job Job, err error, duration time.Duration)

	// OnProgress is called when a job reports fractional progress (0-100).
	OnProgress(ctx context.Context, job Job, percent int)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnJobStart(ctx context.Context, job Job)                             {}
func (NoopObserver) OnJobCompleted(ctx context.Context, job Job, d time.Duration)        {}
func (NoopObserver) OnJobFailed(ctx context.Context, job Job, err error, d time.Duration) {}
func (NoopObserver) OnProgress(ctx context.Context, job Job, percent int)                {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnJobStart(ctx context.Context, job Job) {
	for _, o := range c.observers {
		o.OnJobStart(ctx, job)
	}
}

func (c *CompositeObserver) OnJobCompleted(ctx context.Context, job Job, d time.Duration) {
	for _, o := range c.observers {
		o.OnJobCompleted(ctx, job, d)
	}
}

func (c *CompositeObserver) OnJobFailed(ctx context.Context, job Job, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnJobFailed(ctx, job, err, d)
	}
}

func (c *CompositeObserver) OnProgress(ctx context.Context, job Job, percent int) {
	for _, o := range c.observers {
		o.OnProgress(ctx, job, percent)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs job lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnJobStart(ctx context.Context, job Job) {
	o.Logger.InfoContext(ctx, "job_start",
		slog.String("job", job.Name),
		slog.String("job_id", job.ID),
	)
}

func (o *LoggingObserver) OnJobCompleted(ctx context.Context, job Job, d time.Duration) {
	o.Logger.InfoContext(ctx, "job_completed",
		slog.String("job", job.Name),
		slog.String("job_id", job.ID),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnJobFailed(ctx context.Context, job Job, err error, d time.Duration) {
	o.Logger.ErrorContext(ctx, "job_failed",
		slog.String("job", job.Name),
		slog.String("job_id", job.ID),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnProgress(ctx context.Context, job Job, percent int) {
	o.Logger.DebugContext(ctx, "job_progress",
		slog.String("job", job.Name),
		slog.String("job_id", job.ID),
		slog.Int("percent", percent),
	)
}

// BasicMetrics collects simple counters and aggregate job durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	jobsStarted      atomic.Int64
	jobsCompleted    atomic.Int64
	jobsFailed       atomic.Int64
	totalJobDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	JobsStarted   int64
	JobsCompleted int64
	JobsFailed    int64
	JobsInFlight  int64

	AvgJobDuration time.Duration
}

func (m *BasicMetrics) OnJobStart(ctx context.Context, job Job) {
	m.jobsStarted.Add(1)
}

func (m *BasicMetrics) OnJobCompleted(ctx context.Context, job Job, d time.Duration) {
	m.jobsCompleted.Add(1)
	m.totalJobDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnJobFailed(ctx context.Context, job Job, err error, d time.Duration) {
	m.jobsFailed.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.jobsStarted.Load()
	completed := m.jobsCompleted.Load()
	failed := m.jobsFailed.Load()
	totalNs := m.totalJobDuration.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(totalNs / completed)
	}

	return BasicMetricsSnapshot{
		JobsStarted:    started,
		JobsCompleted:  completed,
		JobsFailed:     failed,
		JobsInFlight:   started - completed - failed,
		AvgJobDuration: avg,
	}
}
