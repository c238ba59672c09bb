package weft

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/weft/internal/jobqueue"
	"github.com/petrijr/weft/pkg/observe"
	"github.com/petrijr/weft/pkg/throttle"
)

// JobFunc is a unit of work submitted to a Runner.
type JobFunc = jobqueue.JobFunc

// Handle tracks one submitted job.
//
// Every submission returns a Handle; there is no fire-and-forget path. The
// completion channel is buffered, so a caller that genuinely does not care
// may drop the Handle without blocking a worker, but the result is always
// observable for callers that do.
type Handle struct {
	// ID is the unique id assigned to this submission.
	ID string
	// Name is the caller-supplied job label.
	Name string

	done chan error
}

// Done returns a channel that receives the job's result exactly once.
func (h *Handle) Done() <-chan error {
	return h.done
}

// Wait blocks until the job finishes or ctx is cancelled, and returns the
// job's error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case err := <-h.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver sets the Observer notified of job lifecycle events.
func WithObserver(obs observe.Observer) RunnerOption {
	return func(r *Runner) {
		if obs != nil {
			r.obs = obs
		}
	}
}

// WithMaxParallel bounds how many jobs execute simultaneously, independent
// of the number of worker goroutines. n <= 0 leaves execution unbounded.
func WithMaxParallel(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.gate = throttle.New(n)
		}
	}
}

// WithQueueCapacity sets the job queue capacity. Submit blocks once the
// queue is full; that is the Runner's backpressure point.
func WithQueueCapacity(n int) RunnerOption {
	return func(r *Runner) { r.queueCap = n }
}

// WithLogger sets the logger used by the worker loop for non-fatal errors.
// If unset, slog.Default() is used.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner bundles a job queue and a pool of worker goroutines.
//
// Typical usage:
//
//	runner := weft.NewRunner(weft.WithMaxParallel(3))
//	_ = runner.StartWorkers(ctx, 8)
//	defer runner.Stop()
//
//	h, err := runner.Submit(ctx, "resize", resizeImage)
//	...
//	err = h.Wait(ctx)
//
// Workers pull jobs in submission order. When a parallelism ceiling is
// configured, a worker holds a throttle slot for the duration of its job,
// so at most that many jobs run concurrently regardless of worker count.
type Runner struct {
	queue    *jobqueue.Queue
	obs      observe.Observer
	gate     *throttle.Throttle
	logger   *slog.Logger
	queueCap int

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRunner constructs a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		obs:    observe.NoopObserver{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = jobqueue.New(r.queueCap)
	return r
}

// QueueLen returns the number of jobs waiting to be picked up.
func (r *Runner) QueueLen() int {
	return r.queue.Len()
}

// StartWorkers starts 'concurrency' worker goroutines that continuously
// process jobs until the context is cancelled via Stop.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (r *Runner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("weft: Runner already started")
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()

			for {
				processed, err := r.processOne(ctx)
				if !processed {
					// Nothing was dequeued; cancellation is the clean
					// shutdown signal.
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return
					}
					continue
				}
				if err != nil {
					// The error belongs to the job and has already been
					// delivered to its Handle; log and keep going so a
					// single bad job doesn't kill the worker.
					r.logger.Error("weft: worker job failed", slog.Any("error", err))
				}
			}
		}()
	}

	return nil
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit. Queued jobs that were never picked up stay queued.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Submit enqueues fn for execution and returns its Handle. It blocks while
// the queue is full and returns ctx's error if cancelled while blocked.
func (r *Runner) Submit(ctx context.Context, name string, fn JobFunc) (*Handle, error) {
	if fn == nil {
		return nil, errors.New("weft: Submit with nil job func")
	}

	job := jobqueue.Job{
		ID:         uuid.NewString(),
		Name:       name,
		Fn:         fn,
		EnqueuedAt: time.Now(),
		Done:       make(chan error, 1),
	}
	if err := r.queue.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return &Handle{ID: job.ID, Name: job.Name, done: job.Done}, nil
}

// processOne pulls a single job from the queue and runs it.
// Returns (processed, error):
//   - processed == false, err != nil: nothing processed (ctx cancelled
//     before a job was obtained)
//   - processed == true: a job ran; err is the job's own result, which has
//     also been delivered to the job's Handle.
func (r *Runner) processOne(ctx context.Context) (bool, error) {
	job, err := r.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}

	jobErr := r.runJob(ctx, job)
	job.Done <- jobErr
	return true, jobErr
}

func (r *Runner) runJob(ctx context.Context, job *jobqueue.Job) error {
	info := observe.Job{ID: job.ID, Name: job.Name}

	run := func(ctx context.Context) error {
		r.obs.OnJobStart(ctx, info)
		started := time.Now()
		err := job.Fn(ctx)
		elapsed := time.Since(started)
		if err != nil {
			r.obs.OnJobFailed(ctx, info, err, elapsed)
			return err
		}
		r.obs.OnJobCompleted(ctx, info, elapsed)
		return nil
	}

	if r.gate != nil {
		return r.gate.Do(ctx, run)
	}
	return run(ctx)
}
