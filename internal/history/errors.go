package history

import (
	"fmt"
)

// ErrorType represents the category of failure reported by the chart API
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the request exceeded the per-request timeout
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRateLimit indicates the provider rejected the request (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a provider error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeMalformed indicates a response that could not be interpreted
	// as a history table
	ErrorTypeMalformed ErrorType = "malformed"
)

// RemoteError is a structured error from one chart API call. The retry
// policy in the downloader treats every RemoteError as retryable within a
// run; Retryable records whether another attempt can plausibly succeed.
type RemoteError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *RemoteError {
	return &RemoteError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *RemoteError {
	return &RemoteError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewMalformedError creates an error for an uninterpretable response
func NewMalformedError(message string) *RemoteError {
	return &RemoteError{
		Type:      ErrorTypeMalformed,
		Retryable: true,
		Message:   message,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate RemoteError
func ClassifyHTTPError(statusCode int) *RemoteError {
	switch {
	case statusCode == 429:
		return &RemoteError{
			Type:       ErrorTypeRateLimit,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "rate limit exceeded",
		}
	case statusCode >= 500:
		return &RemoteError{
			Type:       ErrorTypeServer,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "provider returned an error",
		}
	default:
		return &RemoteError{
			Type:       ErrorTypeClient,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}
