package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/davetashner/checkview/internal/messages"
	"github.com/davetashner/checkview/internal/validation"
)

// Sentinel errors for the failure taxonomy.
var (
	// ErrUpstream marks failures reaching a remote accessor.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrInvalidParams marks request parameters that failed validation.
	ErrInvalidParams = errors.New("invalid request parameters")

	// ErrNotFound marks a required record that the accessor did not return.
	ErrNotFound = errors.New("not found")
)

// StepError records which step failed and why.
type StepError struct {
	Index int
	Step  string
	Kind  Kind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s %q): %v", e.Index, e.Kind, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// FailureKind is a coarse classification used for logs and for choosing the
// failure view.
type FailureKind string

// Failure kinds.
const (
	FailureUpstream         FailureKind = "upstream"
	FailureMalformed        FailureKind = "malformed"
	FailureUnknownIssueType FailureKind = "unknown-issue-type"
	FailureInvalidParams    FailureKind = "invalid-params"
	FailureNotFound         FailureKind = "not-found"
	FailureCanceled         FailureKind = "canceled"
	FailureInternal         FailureKind = "internal"
)

// Classify maps err onto a FailureKind using sentinel errors and standard
// library error types only.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureCanceled
	}
	if errors.Is(err, messages.ErrUnknownIssueType) {
		return FailureUnknownIssueType
	}
	if errors.Is(err, validation.ErrMalformed) {
		return FailureMalformed
	}
	if errors.Is(err, ErrInvalidParams) {
		return FailureInvalidParams
	}
	if errors.Is(err, ErrNotFound) {
		return FailureNotFound
	}
	if errors.Is(err, ErrUpstream) {
		return FailureUpstream
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return FailureUpstream
	}
	return FailureInternal
}
