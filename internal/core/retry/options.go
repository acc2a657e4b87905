package retry

import (
	"github.com/vietddude/resilience/internal/core/failure"
)

// Callback runs before the wait for every retried attempt. Its error or panic is reported to
// the observer and discarded.
type Callback func(err error, attempt int) error

type config struct {
	policy          Policy
	retryable       failure.Set
	onRetry         Callback
	observer        Observer
	name            string
	rand            Rand
	honorRetryAfter bool
}

// Option configures an executor or Scope.
type Option func(*config)

// WithPolicy sets the backoff policy. The default is DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithRetryable sets which failures are retried. The default retries every error.
func WithRetryable(s failure.Set) Option {
	return func(c *config) {
		c.retryable = s
	}
}

// WithRetryableKinds is shorthand for WithRetryable(failure.Of(kinds...)).
func WithRetryableKinds(kinds ...failure.Kind) Option {
	return WithRetryable(failure.Of(kinds...))
}

// WithOnRetry registers the retry callback.
func WithOnRetry(cb Callback) Option {
	return func(c *config) {
		c.onRetry = cb
	}
}

// WithObserver replaces the default log observer. A nil observer silences events.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o == nil {
			o = NopObserver{}
		}
		c.observer = o
	}
}

// WithName labels events with the operation name.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithRand sets the jitter source. The source must be safe for concurrent use when the
// wrapped operation is called from several goroutines.
func WithRand(r Rand) Option {
	return func(c *config) {
		c.rand = r
	}
}

// WithRetryAfter makes the wait at least as long as a failure's RetryAfter hint.
func WithRetryAfter(enabled bool) Option {
	return func(c *config) {
		c.honorRetryAfter = enabled
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		policy:    DefaultPolicy(),
		retryable: failure.Any(),
		observer:  NewLogObserver(nil),
		name:      "operation",
		rand:      globalRand{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
