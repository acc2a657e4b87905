package worker

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/resilience/internal/core/retry"
)

// Map runs fn for every item with at most limit calls in flight, each under DoContext with opts.
// Results keep input order. A failed item does not stop its siblings; all failures are joined.
func Map[In, Out any](
	ctx context.Context,
	limit int,
	items []In,
	fn func(context.Context, In) (Out, error),
	opts ...retry.Option,
) ([]Out, error) {
	results := make([]Out, len(items))
	errs := make([]error, len(items))

	call := retry.WrapContextFunc(fn, opts...)

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			results[i], errs[i] = call(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// ForEach is Map for work without results.
func ForEach[In any](
	ctx context.Context,
	limit int,
	items []In,
	fn func(context.Context, In) error,
	opts ...retry.Option,
) error {
	_, err := Map(ctx, limit, items, func(ctx context.Context, item In) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, opts...)
	return err
}
