package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrThrottled is returned when the shared throttle window blocks a request
	// before dispatch.
	ErrThrottled = errors.New("request blocked: management endpoint throttled")
)

// ManagementError represents a management endpoint error with additional context.
type ManagementError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ManagementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("management %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("management %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ManagementError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors are deterministic and should NOT be retried
		return false
	case ErrorClassServer:
		// 5xx server errors should be retried
		return true
	case ErrorClassThrottle:
		// 429 opens the shared throttle window; the window owns the wait,
		// so retrying inside the call would just burn the Retry-After budget
		return false
	case ErrorClassNetwork:
		// Network errors should be retried
		return true
	default:
		return false
	}
}
