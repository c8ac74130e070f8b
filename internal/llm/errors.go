package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProviderUnavailable means a provider has no credentials and was left out of the fan-out
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited is the only transient error; callers retry it with backoff
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse means no JSON verdict could be recovered from the reply
	ErrMalformedResponse = errors.New("malformed response")

	ErrTimeout = errors.New("timeout")
	ErrAuth    = errors.New("authentication failed")

	// ErrAllProvidersFailed is reported when every vote for a discrepancy errored
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrNoProvidersConfigured is the one hard failure of classification
	ErrNoProvidersConfigured = errors.New("no classification providers configured")

	ErrUnknownProvider = errors.New("unknown classification provider")
)

// Error kinds recorded on failed votes
const (
	KindProviderUnavailable = "provider_unavailable"
	KindRateLimited         = "rate_limited"
	KindMalformedResponse   = "malformed_response"
	KindTimeout             = "timeout"
	KindAuth                = "auth"
	KindUpstream            = "upstream"
)

// StatusError is a non-2xx response from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap exposes the taxonomy sentinel matching the status code, if any
func (e *StatusError) Unwrap() error {
	return e.kind
}

// newStatusError maps HTTP status codes onto the error taxonomy.
// 529 is Anthropic's "overloaded" status and is treated as rate limiting.
func newStatusError(provider string, code int, message string) *StatusError {
	e := &StatusError{Provider: provider, StatusCode: code, Message: message}
	switch code {
	case http.StatusTooManyRequests, 529:
		e.kind = ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		e.kind = ErrAuth
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e.kind = ErrTimeout
	}
	return e
}

// wrapTransportError tags deadline errors as timeouts
func wrapTransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// Kind returns the vote error kind for err
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	default:
		return KindUpstream
	}
}

// IsRetryable reports whether err should be retried with backoff
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
