package vision

import (
	"errors"
	"fmt"
)

// Sentinel errors for the vision package.
var (
	// ErrNoBaseline indicates Analyze was called without a baseline.
	ErrNoBaseline = errors.New("vision: no calibration baseline")

	// ErrEmptyFrame indicates the frame had no data.
	ErrEmptyFrame = errors.New("vision: empty frame")

	// ErrUnparseable indicates the model reply contained no usable score.
	ErrUnparseable = errors.New("vision: unparseable model reply")
)

// APIError represents an error response from the model backend.
type APIError struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// Message is the body or error detail from the backend.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vision: backend error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true for rate limits and server-side failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
