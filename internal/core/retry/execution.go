package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/resilience/internal/core/failure"
)

// CanceledError is returned by the context-aware executors when the context ends the loop.
// It unwraps to both the context error and the last operation failure, if any.
type CanceledError struct {
	Attempts int
	Cause    error
	Last     error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("retry canceled after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *CanceledError) Unwrap() []error {
	if e.Last == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.Last}
}

// execution holds the mutable state of one run. It is never shared between runs.
type execution struct {
	cfg *config
	id  string
}

func (c *config) start() *execution {
	return &execution{cfg: c, id: uuid.NewString()}
}

func (x *execution) event(attempt int, err error) Event {
	return Event{
		ExecutionID: x.id,
		Operation:   x.cfg.name,
		Attempt:     attempt,
		MaxRetries:  x.cfg.policy.MaxRetries,
		Err:         err,
	}
}

// next decides what follows a failed attempt. It reports the wait before the next attempt and
// false when err must propagate unchanged.
func (x *execution) next(attempt int, err error) (time.Duration, bool) {
	ev := x.event(attempt, err)

	if !x.cfg.retryable.Match(err) {
		x.cfg.observer.Rejected(ev)
		return 0, false
	}
	if attempt >= x.cfg.policy.MaxRetries {
		x.cfg.observer.Exhausted(ev)
		return 0, false
	}

	ev.Delay = x.delay(attempt, err)
	x.cfg.observer.Retrying(ev)

	if x.cfg.onRetry != nil {
		if cbErr := x.callback(err, attempt); cbErr != nil {
			ev.CallbackErr = cbErr
			x.cfg.observer.CallbackFailed(ev)
		}
	}
	return ev.Delay, true
}

func (x *execution) delay(attempt int, err error) time.Duration {
	d := x.cfg.policy.DelayWith(attempt, x.cfg.rand)
	if x.cfg.honorRetryAfter {
		d = max(d, failure.RetryAfter(err))
	}
	return d
}

func (x *execution) callback(err error, attempt int) (cbErr error) {
	defer func() {
		if r := recover(); r != nil {
			cbErr = fmt.Errorf("retry callback panicked: %v", r)
		}
	}()
	return x.cfg.onRetry(err, attempt)
}

// canceled builds the terminal error for a context stop after attempts invocations.
func (x *execution) canceled(ctx context.Context, attempts int, last error) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	if !errors.Is(cause, ctx.Err()) {
		cause = fmt.Errorf("%w: %w", ctx.Err(), cause)
	}
	err := &CanceledError{Attempts: attempts, Cause: cause, Last: last}
	x.cfg.observer.Canceled(x.event(attempts, err))
	return err
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
