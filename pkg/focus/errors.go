package focus

import (
	"errors"
	"fmt"
)

// Sentinel errors for the focus package.
var (
	// ErrInvalidScore indicates a score outside [0,100]. The offending
	// sample is discarded and the machine's state is unchanged.
	ErrInvalidScore = errors.New("focus: score out of range")

	// ErrInvalidConfig indicates threshold or window misconfiguration.
	ErrInvalidConfig = errors.New("focus: invalid configuration")
)

// InvalidScoreError carries the rejected score for logging.
type InvalidScoreError struct {
	Score int
}

// Error implements the error interface.
func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("focus: score %d out of range 0-100", e.Score)
}

// Unwrap makes errors.Is(err, ErrInvalidScore) work.
func (e *InvalidScoreError) Unwrap() error {
	return ErrInvalidScore
}
