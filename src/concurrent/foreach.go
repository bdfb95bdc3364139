package concurrent

import (
	"context"
	"errors"
	"sync"
)

// ForEach runs fn on each item with bounded parallelism, returning the
// joined errors. Items still start after a failure; a cancelled context
// stops admission of new work.
func ForEach[T any](ctx context.Context, items []T, fn func(T) error, maxConcurrency int) error {
	if len(items) == 0 {
		return nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	var (
		wg   sync.WaitGroup
		sem  = make(chan struct{}, maxConcurrency)
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, item := range items {
		wg.Add(1)
		go func(val T) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				record(err)
				return
			}
			select {
			case <-ctx.Done():
				record(ctx.Err())
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
				if err := fn(val); err != nil {
					record(err)
				}
			}
		}(item)
	}
	wg.Wait()
	return errors.Join(errs...)
}
