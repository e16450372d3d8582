package paystack

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed gateway call for retry decisions.
type ErrorKind string

const (
	// ErrorKindRateLimited maps HTTP 429; safe to retry with backoff.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindServer maps 5xx responses; safe to retry with backoff.
	ErrorKindServer ErrorKind = "server"
	// ErrorKindClient maps 4xx responses other than 429; never retried.
	ErrorKindClient ErrorKind = "client"
	// ErrorKindNetwork covers timeouts and connection failures.
	ErrorKindNetwork ErrorKind = "network"
)

// APIError is the classified failure returned by every gateway call.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("paystack: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paystack: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the caller may back off and retry the call.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case ErrorKindRateLimited, ErrorKindServer, ErrorKindNetwork:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a gateway failure worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

func classifyStatus(status int, message string) *APIError {
	kind := ErrorKindClient
	switch {
	case status == http.StatusTooManyRequests:
		kind = ErrorKindRateLimited
	case status >= 500:
		kind = ErrorKindServer
	}
	return &APIError{Kind: kind, StatusCode: status, Message: message}
}

func networkError(err error, message string) *APIError {
	return &APIError{Kind: ErrorKindNetwork, Message: message, cause: err}
}
