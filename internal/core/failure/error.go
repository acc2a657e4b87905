package failure

import (
	"errors"
	"fmt"
	"time"
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// RetryAfter is a server supplied hint for the earliest next attempt. Zero when absent.
	RetryAfter time.Duration
}

// New creates a classified failure with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. The cause stays reachable through Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Error returns the message only. The cause is never formatted.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind target by ancestry, so errors.Is(err, API) holds for APITimeout failures.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok {
		return false
	}
	return e.Kind.IsA(k)
}

// WithRetryAfter returns e with the retry hint set.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// KindOf returns the kind of the outermost classified failure in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return Root, false
}

// RetryAfter returns the retry hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.RetryAfter
	}
	return 0
}

// Label names err's kind for logs and metric labels. Unclassified errors are "unclassified".
func Label(err error) string {
	if k, ok := KindOf(err); ok {
		return k.String()
	}
	return "unclassified"
}
