package embed

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
)

// ErrRateLimited marks a provider answer that asked the caller to slow down
var ErrRateLimited = errors.New("embedding provider rate limited")

// StatusError is a non-2xx answer from an embedding API
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// newStatusError tags 429 and 529 (overloaded) as rate limiting
func newStatusError(provider string, code int, message string) *StatusError {
	e := &StatusError{Provider: provider, StatusCode: code, Message: message}
	if code == http.StatusTooManyRequests || code == 529 {
		e.kind = ErrRateLimited
	}
	return e
}

// mapOpenAIError converts go-openai errors into StatusError where a status is known
func mapOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newStatusError(provider, reqErr.HTTPStatusCode, reqErr.Error())
	}

	return fmt.Errorf("%s: %w", provider, err)
}

// mapGeminiError converts genai API errors into StatusError
func mapGeminiError(provider string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(provider, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newStatusError(provider, apiErrPtr.Code, apiErrPtr.Message)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// IsRetryable reports whether an embedding error is worth another attempt
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// DefaultRetryPolicy retries rate-limited embedding calls with bounded backoff
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
		Multiplier:  2,
		Retryable:   IsRetryable,
	}
}
