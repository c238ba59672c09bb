package guard

import (
	"sync"
	"testing"
)

// K workers each doing M guarded increments must land on exactly K*M,
// every run.
func TestCounter_GuardedIsExact(t *testing.T) {
	const workers = 8
	const increments = 1000

	var c Counter

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				c.IncrementGuarded()
			}
		}()
	}
	wg.Wait()

	if got, want := c.Value(), int64(workers*increments); got != want {
		t.Fatalf("guarded counter lost updates: got %d, want %d", got, want)
	}
}

// The unguarded path must demonstrably lose updates: over repeated trials
// the final value is never above K*M and at least one run lands below it.
func TestCounter_UnsafeLosesUpdates(t *testing.T) {
	if raceEnabled {
		t.Skip("the unsafe counter is a deliberate data race; skipped under -race")
	}

	const workers = 8
	const increments = 500
	const trials = 20

	sawLoss := false
	for trial := 0; trial < trials; trial++ {
		var c Counter

		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for i := 0; i < increments; i++ {
					c.IncrementUnsafe()
				}
			}()
		}
		wg.Wait()

		got := c.Value()
		if got > int64(workers*increments) {
			t.Fatalf("trial %d: counter overshot: got %d, max possible %d", trial, got, workers*increments)
		}
		if got < int64(workers*increments) {
			sawLoss = true
		}
	}

	if !sawLoss {
		t.Fatalf("no lost updates observed in %d trials; the unsafe path is not racing", trials)
	}
}

func TestCounter_AddAndReset(t *testing.T) {
	var c Counter

	c.Add(5)
	c.Add(-2)
	if got := c.Value(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	c.Reset()
	if got := c.Value(); got != 0 {
		t.Fatalf("expected 0 after Reset, got %d", got)
	}
}
