package weft

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Gather runs fns concurrently and waits for all of them to finish.
//
// limit > 0 bounds how many run simultaneously; limit <= 0 means no bound.
// The first error cancels the context passed to the remaining functions,
// and Gather returns that first error. Functions that have not started yet
// still run (and should return promptly once they observe cancellation).
//
// It is the in-process join point for one-shot fan-out work; for a
// long-lived pool with per-job handles, use Runner instead.
func Gather(ctx context.Context, limit int, fns ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn := fn
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}
