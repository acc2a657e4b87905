package retry

import (
	"log/slog"
	"time"

	"github.com/vietddude/resilience/internal/core/failure"
)

// Event describes one failed attempt of an execution. It lives only as long as the call
// that delivers it.
type Event struct {
	ExecutionID string
	Operation   string
	// Attempt is the 0-based index of the failed attempt. Canceled events carry the number of
	// attempts made instead.
	Attempt    int
	MaxRetries int
	Err        error

	// Delay is the wait scheduled before the next attempt. Zero for terminal events.
	Delay time.Duration

	// CallbackErr is set on CallbackFailed events only.
	CallbackErr error
}

// Observer receives execution events. Observers never influence control flow.
type Observer interface {
	// Retrying fires before the wait for a retryable failure with attempts remaining.
	Retrying(Event)
	// CallbackFailed fires when the retry callback returned an error or panicked.
	CallbackFailed(Event)
	// Exhausted fires once when the last allowed attempt failed with a retryable failure.
	Exhausted(Event)
	// Rejected fires when a failure is outside the retryable set.
	Rejected(Event)
	// Canceled fires when the context stopped the execution.
	Canceled(Event)
}

// NopObserver ignores every event. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) Retrying(Event)       {}
func (NopObserver) CallbackFailed(Event) {}
func (NopObserver) Exhausted(Event)      {}
func (NopObserver) Rejected(Event)       {}
func (NopObserver) Canceled(Event)       {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) Retrying(e Event) {
	for _, o := range m {
		o.Retrying(e)
	}
}

func (m multiObserver) CallbackFailed(e Event) {
	for _, o := range m {
		o.CallbackFailed(e)
	}
}

func (m multiObserver) Exhausted(e Event) {
	for _, o := range m {
		o.Exhausted(e)
	}
}

func (m multiObserver) Rejected(e Event) {
	for _, o := range m {
		o.Rejected(e)
	}
}

func (m multiObserver) Canceled(e Event) {
	for _, o := range m {
		o.Canceled(e)
	}
}

// LogObserver writes execution events to a slog logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns an observer logging to l, or to slog.Default() at event time when l
// is nil.
func NewLogObserver(l *slog.Logger) *LogObserver {
	return &LogObserver{logger: l}
}

func (o *LogObserver) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

func (o *LogObserver) Retrying(e Event) {
	o.log().Warn("Operation failed, retrying",
		"op", e.Operation,
		"execution_id", e.ExecutionID,
		"attempt", e.Attempt+1,
		"max_retries", e.MaxRetries,
		"delay", e.Delay,
		"kind", failure.Label(e.Err),
		"error", e.Err,
	)
}

func (o *LogObserver) CallbackFailed(e Event) {
	o.log().Error("Retry callback failed",
		"op", e.Operation,
		"execution_id", e.ExecutionID,
		"attempt", e.Attempt+1,
		"error", e.CallbackErr,
	)
}

func (o *LogObserver) Exhausted(e Event) {
	o.log().Error("Operation failed after all retries",
		"op", e.Operation,
		"execution_id", e.ExecutionID,
		"retries", e.MaxRetries,
		"kind", failure.Label(e.Err),
		"error", e.Err,
	)
}

func (o *LogObserver) Rejected(e Event) {
	o.log().Error("Operation raised non-retryable failure",
		"op", e.Operation,
		"execution_id", e.ExecutionID,
		"attempt", e.Attempt+1,
		"kind", failure.Label(e.Err),
		"error", e.Err,
	)
}

func (o *LogObserver) Canceled(e Event) {
	o.log().Info("Retry loop canceled",
		"op", e.Operation,
		"execution_id", e.ExecutionID,
		"attempts", e.Attempt,
		"error", e.Err,
	)
}
