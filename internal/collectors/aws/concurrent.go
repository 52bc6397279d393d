package aws

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 8

// mapWithLimit runs fn over items with at most limit calls in flight. Results
// keep the order of items; the first error cancels the rest.
func mapWithLimit[T any, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if limit < 1 {
		limit = defaultMaxConcurrency
	}

	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		i, item := i, item // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			result, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
