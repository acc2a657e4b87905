package classify

import (
	"errors"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v2"

	"github.com/vietddude/resilience/internal/core/failure"
)

// OpenAI classifies an API error returned by the OpenAI client into the model family.
// It returns nil when err is not an *openai.Error.
//
// The client's own Error method dereferences the request and response, so the message is built
// from the status and error code only.
func OpenAI(err error) *failure.Error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr == nil {
		return nil
	}

	code := apiErr.StatusCode
	msg := "openai " + http.StatusText(code)
	if apiErr.Code != "" {
		msg += " (" + apiErr.Code + ")"
	}

	var kind failure.Kind
	switch {
	case code == http.StatusTooManyRequests:
		kind = failure.APIRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		kind = failure.APITimeout
	case code >= 500:
		kind = failure.ModelResponse
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = failure.Configuration
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		kind = failure.Validation
	default:
		kind = failure.Model
	}

	fe := failure.Wrap(kind, err, "%s", msg)
	if apiErr.Response != nil {
		fe.RetryAfter = RetryAfterHeader(apiErr.Response.Header, time.Now())
	}
	return fe
}
