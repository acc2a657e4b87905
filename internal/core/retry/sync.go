package retry

import "time"

// Do calls fn until it succeeds, fails with a non-retryable error, or the policy is exhausted.
// Waits block the calling goroutine. The last failure is returned unmodified.
func Do[T any](fn func() (T, error), opts ...Option) (T, error) {
	return doSync(newConfig(opts), fn)
}

// Run is Do for operations without a result.
func Run(fn func() error, opts ...Option) error {
	_, err := Do(func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
	return err
}

// Wrap returns fn with retries applied on every call. Options are resolved once.
func Wrap[T any](fn func() (T, error), opts ...Option) func() (T, error) {
	c := newConfig(opts)
	return func() (T, error) {
		return doSync(c, fn)
	}
}

// WrapFunc is Wrap for single-argument operations.
func WrapFunc[A, T any](fn func(A) (T, error), opts ...Option) func(A) (T, error) {
	c := newConfig(opts)
	return func(arg A) (T, error) {
		return doSync(c, func() (T, error) {
			return fn(arg)
		})
	}
}

func doSync[T any](c *config, fn func() (T, error)) (T, error) {
	x := c.start()
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}

		delay, ok := x.next(attempt, err)
		if !ok {
			var zero T
			return zero, err
		}
		time.Sleep(delay)
	}
}
