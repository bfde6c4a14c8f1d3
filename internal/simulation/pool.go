package simulation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/hackathon/pkg/logger"
)

// fanOut runs fn for each item on a fixed set of workers and counts the
// outcomes. It stops feeding work once ctx is done; the first error is
// returned alongside the counts.
func fanOut[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) (ok, failed int, first error) {
	var (
		succeeded int64
		errored   int64
		once      sync.Once
		wg        sync.WaitGroup
	)

	work := make(chan T, workers*workerChannelMultiplier)
	for range min(workers, max(len(items), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				if err := fn(ctx, item); err != nil {
					atomic.AddInt64(&errored, 1)
					once.Do(func() { first = err })
					logger.Get().Debug(ctx, "simulation step failed", logger.Error(err))
					continue
				}
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case work <- item:
			}
		}
	}()

	wg.Wait()
	if first == nil && ctx.Err() != nil {
		first = ctx.Err()
	}
	return int(succeeded), int(errored), first
}
