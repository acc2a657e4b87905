// Package classify maps transport and provider failures onto the failure taxonomy.
package classify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/core/failure"
)

// Classify returns err as a taxonomy failure when its origin is recognized. Failures that are
// already classified, cancellations and unknown errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := failure.KindOf(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(failure.APITimeout, err, "deadline exceeded")
	}
	if fe := OpenAI(err); fe != nil {
		return fe
	}
	if fe := GRPC(err); fe != nil {
		return fe
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure.Wrap(failure.APITimeout, err, "network timeout")
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return failure.Wrap(failure.API, err, "network %s failed", opErr.Op)
	}
	if fe := Text(err); fe != nil {
		return fe
	}
	return err
}

var (
	malformedMarkers = []string{"-32700", "-32600", "-32601", "-32602"}
	rateLimitMarkers = []string{"too many requests", "rate limit", "quota", "plan limit", "count exceeded"}
	authMarkers      = []string{"unauthorized", "forbidden", "invalid api key"}
)

// Text classifies errors that carry no structure by well-known message fragments, such as
// JSON-RPC request errors and provider throttling. It returns nil when nothing matches.
func Text(err error) *failure.Error {
	if err == nil {
		return nil
	}
	s := strings.ToLower(err.Error())
	switch {
	case containsAny(s, malformedMarkers):
		return failure.Wrap(failure.Validation, err, "malformed request")
	case containsAny(s, rateLimitMarkers):
		return failure.Wrap(failure.APIRateLimit, err, "rate limited")
	case containsAny(s, authMarkers):
		return failure.Wrap(failure.Configuration, err, "not authorized")
	}
	return nil
}

func containsAny(s string, markers []string) bool {
	return slices.ContainsFunc(markers, func(m string) bool {
		return strings.Contains(s, m)
	})
}

// IsRetryableStatus reports whether an HTTP status is in the configured retry codes.
func IsRetryableStatus(code int) bool {
	return slices.Contains(config.HTTPRetryCodes, code)
}

// HTTPStatus classifies a response status. Success and redirect statuses return nil.
func HTTPStatus(code int, msg string) *failure.Error {
	if code < 400 {
		return nil
	}
	if msg == "" {
		msg = "http " + strconv.Itoa(code) + " " + http.StatusText(code)
	}
	switch {
	case code == http.StatusTooManyRequests:
		return failure.New(failure.APIRateLimit, "%s", msg)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return failure.New(failure.APITimeout, "%s", msg)
	case IsRetryableStatus(code) || code >= 500:
		return failure.New(failure.API, "%s", msg)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return failure.New(failure.Configuration, "%s", msg)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return failure.New(failure.Validation, "%s", msg)
	default:
		return failure.New(failure.DataFetch, "%s", msg)
	}
}

// HTTPResponse classifies resp by status and carries its Retry-After header.
func HTTPResponse(resp *http.Response) *failure.Error {
	if resp == nil {
		return nil
	}
	fe := HTTPStatus(resp.StatusCode, "")
	if fe == nil {
		return nil
	}
	if req := resp.Request; req != nil && req.URL != nil {
		fe.Msg = req.Method + " " + req.URL.Redacted() + ": " + fe.Msg
	}
	return fe.WithRetryAfter(RetryAfterHeader(resp.Header, time.Now()))
}

// RetryAfterHeader parses a Retry-After value given as seconds or an HTTP date.
func RetryAfterHeader(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
