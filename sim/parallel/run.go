package parallel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Run executes fn once per rank, each in its own goroutine, and waits for all
// of them. The first failing rank aborts the World so that peers blocked in
// communication are released; its error is returned. Cancelling ctx aborts
// the World with ctx.Err().
func (w *World) Run(ctx context.Context, fn func(c *Comm) error) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			w.Abort(ctx.Err())
		case <-w.done:
		case <-stop:
		}
	}()

	var g errgroup.Group
	for rank := 0; rank < w.size; rank++ {
		c := w.Comm(rank)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = recoverRank(c.rank, r)
				}
				if err != nil {
					w.Abort(err)
				}
			}()
			return fn(c)
		})
	}
	err := g.Wait()
	if cause := w.Err(); cause != nil {
		// Report the root cause rather than a peer's secondary abort.
		var abortErr *AbortError
		if err == nil || errors.As(err, &abortErr) {
			return cause
		}
	}
	return err
}

func recoverRank(rank int, r any) error {
	switch v := r.(type) {
	case *AbortError:
		return v
	case error:
		return fmt.Errorf("rank %d: %w", rank, v)
	default:
		return fmt.Errorf("rank %d: panic: %v", rank, v)
	}
}
