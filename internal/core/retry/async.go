package retry

import "context"

// DoContext is Do for context-aware operations. Waits select on ctx, so a stopped context ends
// the loop at once: no further attempt runs, the callback is not invoked and the result is a
// *CanceledError wrapping ctx's error and the last failure.
func DoContext[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	return doAsync(ctx, newConfig(opts), fn)
}

// RunContext is DoContext for operations without a result.
func RunContext(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	_, err := DoContext(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// WrapContext returns fn with retries applied on every call. Options are resolved once.
func WrapContext[T any](
	fn func(context.Context) (T, error),
	opts ...Option,
) func(context.Context) (T, error) {
	c := newConfig(opts)
	return func(ctx context.Context) (T, error) {
		return doAsync(ctx, c, fn)
	}
}

// WrapContextFunc is WrapContext for single-argument operations.
func WrapContextFunc[A, T any](
	fn func(context.Context, A) (T, error),
	opts ...Option,
) func(context.Context, A) (T, error) {
	c := newConfig(opts)
	return func(ctx context.Context, arg A) (T, error) {
		return doAsync(ctx, c, func(ctx context.Context) (T, error) {
			return fn(ctx, arg)
		})
	}
}

func doAsync[T any](ctx context.Context, c *config, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero T
		last error
	)

	x := c.start()
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return zero, x.canceled(ctx, attempt, last)
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		last = err

		// A failure observed after the context stopped is a cancellation, not a retry candidate.
		if ctx.Err() != nil {
			return zero, x.canceled(ctx, attempt+1, last)
		}

		delay, ok := x.next(attempt, err)
		if !ok {
			return zero, err
		}
		if sleepContext(ctx, delay) != nil {
			return zero, x.canceled(ctx, attempt+1, last)
		}
	}
}
