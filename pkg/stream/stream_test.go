package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStream_ProducesAllItemsLazily(t *testing.T) {
	ctx := context.Background()

	s := Produce(ctx, 5, 0, func(i int) string {
		return fmt.Sprintf("reading-%d", i)
	})

	var got []string
	for s.Next() {
		got = append(got, s.Value())
	}

	require.NoError(t, s.Err(), "clean exhaustion must not report an error")
	require.Equal(t, []string{"reading-0", "reading-1", "reading-2", "reading-3", "reading-4"}, got)
	require.False(t, s.Next(), "Next after exhaustion stays false")
}

// Cancelling after consuming item 10 of 20 yields exactly 10 items and a
// cancellation outcome, never 20 and never silent truncation.
func TestStream_CancellationAfterTenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := Produce(ctx, 20, 10*time.Millisecond, func(i int) int { return i })

	var got []int
	for s.Next() {
		got = append(got, s.Value())
		if len(got) == 10 {
			cancel()
		}
	}

	require.Len(t, got, 10)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	require.ErrorIs(t, s.Err(), context.Canceled,
		"consumer must see a cancellation outcome, not a silent end")
}

func TestStream_CancelledBeforeFirstItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := Produce(ctx, 20, 0, func(i int) int { return i })

	require.False(t, s.Next())
	require.ErrorIs(t, s.Err(), context.Canceled)
}

// Each call to Produce yields a fresh, independent sequence.
func TestStream_NotRestartable(t *testing.T) {
	ctx := context.Background()

	first, err := Collect(Produce(ctx, 3, 0, func(i int) int { return i * 10 }))
	require.NoError(t, err)
	require.Equal(t, []int{0, 10, 20}, first)

	second, err := Collect(Produce(ctx, 3, 0, func(i int) int { return i * 10 }))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

// The consumer observes each item before the next one is produced.
func TestStream_OneItemInFlight(t *testing.T) {
	ctx := context.Background()

	var produced atomic.Int32
	s := Produce(ctx, 5, 0, func(i int) int {
		produced.Store(int32(i + 1))
		return i
	})

	require.True(t, s.Next())
	// The producer may at most have evaluated the next item (it blocks on
	// the unbuffered hand-off), never more.
	require.LessOrEqual(t, produced.Load(), int32(2))
}

func TestStream_CancellationCausePropagates(t *testing.T) {
	cause := fmt.Errorf("sensor went away")
	ctx, cancel := context.WithCancelCause(context.Background())

	s := Produce(ctx, 20, 10*time.Millisecond, func(i int) int { return i })

	var got []int
	for s.Next() {
		got = append(got, s.Value())
		if len(got) == 3 {
			cancel(cause)
		}
	}

	require.Len(t, got, 3)
	require.ErrorIs(t, s.Err(), cause)
}
