package generation

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/osa030/metatune/internal/infra/metatune"
)

// Errors
var (
	ErrInFlight        = errors.New("music generation already in progress")
	ErrInvalidResponse = errors.New("invalid response")
	ErrPollTimeout     = errors.New("music generation did not finish in time")
)

// FailedError reports a generation the service rejected or declared failed.
type FailedError struct {
	StatusCode int    // HTTP status, zero when reported by a task status
	Detail     string // Server-provided explanation, may be empty
	cause      error
}

// Error implements the error interface.
func (e *FailedError) Error() string {
	if e.Detail != "" {
		return "music generation failed: " + e.Detail
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("music generation failed (status %d)", e.StatusCode)
	}
	return "music generation failed"
}

// Unwrap returns the underlying error.
func (e *FailedError) Unwrap() error {
	return e.cause
}

// classify maps transport-level errors onto the generation error taxonomy.
func classify(err error) error {
	var apiErr *metatune.APIError
	if errors.As(err, &apiErr) {
		return &FailedError{StatusCode: apiErr.StatusCode, Detail: apiErr.Detail, cause: err}
	}
	if errors.Is(err, metatune.ErrUnexpectedResponse) {
		return errors.Mark(err, ErrInvalidResponse)
	}
	return err
}
