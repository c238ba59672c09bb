package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitTerminal(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("operation did not reach a terminal state (state=%s)", op.State())
	}
}

func TestOperation_RunsToCompletion(t *testing.T) {
	op := New(20, func(ctx context.Context, step int) error { return nil })

	var reports []int
	require.NoError(t, op.Start(context.Background(), func(p int) {
		reports = append(reports, p)
	}))
	waitTerminal(t, op)

	require.Equal(t, StateCompleted, op.State())
	require.NoError(t, op.Err())

	// 20 steps at 5% apiece, strictly increasing.
	want := make([]int, 0, 20)
	for i := 1; i <= 20; i++ {
		want = append(want, i*5)
	}
	require.Equal(t, want, reports)
}

// Cancelling after step 7 of 20 yields Cancelled with progress exactly
// {5,10,...,35} and nothing afterwards.
func TestOperation_CancelAfterStepSeven(t *testing.T) {
	op := New(20, func(ctx context.Context, step int) error { return nil })

	var reports []int
	require.NoError(t, op.Start(context.Background(), func(p int) {
		reports = append(reports, p)
		if p == 35 {
			op.Cancel()
		}
	}))
	waitTerminal(t, op)

	require.Equal(t, StateCancelled, op.State())
	require.ErrorIs(t, op.Err(), context.Canceled)
	require.Equal(t, []int{5, 10, 15, 20, 25, 30, 35}, reports)
}

func TestOperation_StartWhileRunningIsRejected(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	op := New(1, func(ctx context.Context, step int) error {
		close(entered)
		<-release
		return nil
	})

	require.NoError(t, op.Start(context.Background(), nil))
	<-entered

	require.Equal(t, StateRunning, op.State())
	require.ErrorIs(t, op.Start(context.Background(), nil), ErrAlreadyRunning)

	close(release)
	waitTerminal(t, op)
	require.Equal(t, StateCompleted, op.State())
}

func TestOperation_FailureIsDistinctFromCancellation(t *testing.T) {
	boom := errors.New("disk on fire")
	op := New(5, func(ctx context.Context, step int) error {
		if step == 3 {
			return boom
		}
		return nil
	})

	var reports []int
	require.NoError(t, op.Start(context.Background(), func(p int) {
		reports = append(reports, p)
	}))
	waitTerminal(t, op)

	require.Equal(t, StateFailed, op.State())
	require.ErrorIs(t, op.Err(), boom)
	// Steps 1 and 2 reported (20%, 40%); step 3 failed before reporting.
	require.Equal(t, []int{20, 40}, reports)
}

// Cancel is idempotent and callable from outside the operation's own
// execution context.
func TestOperation_CancelIsIdempotent(t *testing.T) {
	started := make(chan struct{})
	op := New(100, func(ctx context.Context, step int) error {
		if step == 1 {
			close(started)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			return nil
		}
	})

	require.NoError(t, op.Start(context.Background(), nil))
	<-started
	op.Cancel()
	op.Cancel()
	waitTerminal(t, op)

	require.Equal(t, StateCancelled, op.State())
	op.Cancel() // after terminal: still a no-op
	require.Equal(t, StateCancelled, op.State())
}

// Terminal states are absorbing until Reset.
func TestOperation_ResetAllowsRerun(t *testing.T) {
	op := New(2, func(ctx context.Context, step int) error { return nil })

	require.NoError(t, op.Start(context.Background(), nil))
	waitTerminal(t, op)
	require.Equal(t, StateCompleted, op.State())

	// Absorbing: no restart from a terminal state.
	require.ErrorIs(t, op.Start(context.Background(), nil), ErrAlreadyRunning)

	op.Reset()
	require.Equal(t, StateIdle, op.State())

	require.NoError(t, op.Start(context.Background(), nil))
	waitTerminal(t, op)
	require.Equal(t, StateCompleted, op.State())
}

func TestOperation_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	op := New(1000, func(ctx context.Context, step int) error {
		if step == 1 {
			close(started)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			return nil
		}
	})

	require.NoError(t, op.Start(ctx, nil))
	<-started
	cancel()
	waitTerminal(t, op)

	require.Equal(t, StateCancelled, op.State())
}

func TestOperation_StateTerminal(t *testing.T) {
	require.False(t, StateIdle.Terminal())
	require.False(t, StateRunning.Terminal())
	require.True(t, StateCompleted.Terminal())
	require.True(t, StateCancelled.Terminal())
	require.True(t, StateFailed.Terminal())
}
