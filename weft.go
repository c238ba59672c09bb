package weft

import (
	"context"

	"github.com/petrijr/weft/pkg/command"
	"github.com/petrijr/weft/pkg/observe"
	"github.com/petrijr/weft/pkg/progress"
	"github.com/petrijr/weft/pkg/retry"
	"github.com/petrijr/weft/pkg/serial"
	"github.com/petrijr/weft/pkg/throttle"
)

// Re-export key types so users don't need to dig into pkg.

type (
	Command              = command.Command
	Throttle             = throttle.Throttle
	Operation            = progress.Operation
	OperationState       = progress.State
	RetryPolicy          = retry.Policy
	Loop                 = serial.Loop
	Observer             = observe.Observer
	LoggingObserver      = observe.LoggingObserver
	BasicMetrics         = observe.BasicMetrics
	BasicMetricsSnapshot = observe.BasicMetricsSnapshot
	CompositeObserver    = observe.CompositeObserver
	NoopObserver         = observe.NoopObserver
)

// Re-export common constructors and helpers.

var (
	NewCommand           = command.New
	NewThrottle          = throttle.New
	NewOperation         = progress.New
	NewLoop              = serial.New
	Retry                = retry.New
	NewLoggingObserver   = observe.NewLoggingObserver
	NewCompositeObserver = observe.NewCompositeObserver
)

// RetryDo runs work under the given retry policy and returns its result.
// It is a thin wrapper over retry.Do so callers of the root package don't
// need a second import for the common case.
func RetryDo[T any](ctx context.Context, p RetryPolicy, work func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, p, work)
}

// Re-export operation states for convenience.

const (
	OperationIdle      = progress.StateIdle
	OperationRunning   = progress.StateRunning
	OperationCompleted = progress.StateCompleted
	OperationCancelled = progress.StateCancelled
	OperationFailed    = progress.StateFailed
)
