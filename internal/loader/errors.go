package loader

import (
	"errors"
	"fmt"

	"traceview/internal/trace"
)

// ErrEmptyRunID is returned when a load is requested without a run id.
var ErrEmptyRunID = errors.New("run id is required")

// TransportError reports that the trace API could not be reached or answered
// with a non-success status.
type TransportError struct {
	RunID      string
	StatusCode int
	Status     string
	Err        error
}

// Error renders the failure with the response status text when there is one.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch trace: %v", e.Err)
	}
	return "failed to fetch trace: " + e.Status
}

// Unwrap exposes the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// FailureKind distinguishes an unreachable backend from a contract change.
type FailureKind int

const (
	// FailureNone means the error is nil.
	FailureNone FailureKind = iota
	// FailureTransport covers network errors and non-200 responses.
	FailureTransport
	// FailureValidation covers payloads that break the trace contract.
	FailureValidation
	// FailureOther covers everything else, such as a cancelled wait.
	FailureOther
)

// Classify maps a load error to its failure kind.
func Classify(err error) FailureKind {
	var transportErr *TransportError
	var validationErr *trace.ValidationError
	switch {
	case err == nil:
		return FailureNone
	case errors.As(err, &validationErr):
		return FailureValidation
	case errors.As(err, &transportErr):
		return FailureTransport
	default:
		return FailureOther
	}
}

// Message returns the user-facing description of a load error.
func Message(err error) string {
	switch Classify(err) {
	case FailureNone:
		return ""
	case FailureValidation:
		var validationErr *trace.ValidationError
		errors.As(err, &validationErr)
		return "Invalid trace payload: " + validationErr.Error()
	default:
		return "Error loading trace: " + err.Error()
	}
}
