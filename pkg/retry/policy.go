// Package retry races units of work against per-attempt timeouts and
// retries failures with exponential backoff.
package retry

import "time"

// Policy describes how Do attempts a unit of work.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// AttemptTimeout is the budget for a single attempt. Zero means no
	// per-attempt timeout.
	AttemptTimeout time.Duration

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the delay each attempt. Values <= 0 default
	// to 2.0 (standard exponential backoff, no jitter).
	BackoffMultiplier float64

	// MaxBackoff caps the delay; <= 0 means no cap. The default policy has
	// no cap: callers that need one set it explicitly.
	MaxBackoff time.Duration
}

// Builder provides a fluent way to construct Policy values.
type Builder struct {
	policy Policy
}

// New creates a Builder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func New(maxAttempts int) Builder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return Builder{
		policy: Policy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithAttemptTimeout sets the per-attempt budget. An attempt that exceeds
// it is abandoned and counted as a timeout failure.
func (b Builder) WithAttemptTimeout(d time.Duration) Builder {
	p := b.policy
	p.AttemptTimeout = d
	return Builder{policy: p}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	retry.New(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (b Builder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) Builder {
	p := b.policy
	p.InitialBackoff = initial
	p.MaxBackoff = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.BackoffMultiplier = multiplier
	return Builder{policy: p}
}

// WithConstantBackoff configures a constant backoff between retries.
//
// This is equivalent to an exponential backoff with multiplier 1.0 and
// no max cap.
func (b Builder) WithConstantBackoff(delay time.Duration) Builder {
	p := b.policy
	p.InitialBackoff = delay
	p.MaxBackoff = 0
	p.BackoffMultiplier = 1.0
	return Builder{policy: p}
}

// Immediate disables any sleep between retries.
// Retries still respect MaxAttempts.
func (b Builder) Immediate() Builder {
	p := b.policy
	p.InitialBackoff = 0
	p.MaxBackoff = 0
	p.BackoffMultiplier = 0
	return Builder{policy: p}
}

// Policy returns the underlying Policy to be passed to Do.
func (b Builder) Policy() Policy {
	return b.policy
}
