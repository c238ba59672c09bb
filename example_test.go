package weft_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/petrijr/weft"
	"github.com/petrijr/weft/pkg/progress"
	"github.com/petrijr/weft/pkg/stream"
)

// Example_runner demonstrates submitting jobs to a Runner and waiting on
// their handles.
func Example_runner() {
	ctx := context.Background()

	runner := weft.NewRunner(weft.WithMaxParallel(2))
	if err := runner.StartWorkers(ctx, 4); err != nil {
		log.Fatal(err)
	}
	defer runner.Stop()

	h, err := runner.Submit(ctx, "greet", func(ctx context.Context) error {
		fmt.Println("hello from a worker")
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := h.Wait(ctx); err != nil {
		log.Fatal(err)
	}

	// Output:
	// hello from a worker
}

// Example_command demonstrates the single-flight guarantee: a command that
// is already running rejects further invocations locally.
func Example_command() {
	ctx := context.Background()

	release := make(chan struct{})
	entered := make(chan struct{})
	cmd := weft.NewCommand(func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	})

	done, _ := cmd.RunAsync(ctx)
	<-entered

	fmt.Println("can run while busy:", cmd.CanRun())

	close(release)
	if err := <-done; err != nil {
		log.Fatal(err)
	}
	fmt.Println("can run after completion:", cmd.CanRun())

	// Output:
	// can run while busy: false
	// can run after completion: true
}

// Example_progress demonstrates a cancellable multi-step operation
// reporting percentages to a sink.
func Example_progress() {
	op := progress.New(4, func(ctx context.Context, step int) error {
		return nil
	})

	if err := op.Start(context.Background(), func(percent int) {
		fmt.Printf("%d%%\n", percent)
	}); err != nil {
		log.Fatal(err)
	}
	<-op.Done()

	fmt.Println("state:", op.State())

	// Output:
	// 25%
	// 50%
	// 75%
	// 100%
	// state: COMPLETED
}

// Example_stream demonstrates incremental consumption of a lazy sequence.
func Example_stream() {
	ctx := context.Background()

	s := stream.Produce(ctx, 3, time.Millisecond, func(i int) string {
		return fmt.Sprintf("sample-%d", i)
	})

	for s.Next() {
		fmt.Println(s.Value())
	}
	if err := s.Err(); err != nil {
		log.Fatal(err)
	}

	// Output:
	// sample-0
	// sample-1
	// sample-2
}

// Example_retry demonstrates racing flaky work against a per-attempt
// budget with exponential backoff between attempts.
func Example_retry() {
	attempts := 0
	policy := weft.Retry(3).
		WithAttemptTimeout(time.Second).
		WithExponentialBackoff(time.Millisecond, 2.0, 0).
		Policy()

	result, err := weft.RetryDo(context.Background(), policy, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", fmt.Errorf("flaky (attempt %d)", attempts)
		}
		return "steady", nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result, "after", attempts, "attempts")

	// Output:
	// steady after 2 attempts
}
