package main

import (
	"fmt"

	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/redact"
)

// Exit codes for the checkview CLI.
const (
	ExitOK          = 0 // View produced, nothing to report.
	ExitInvalidArgs = 1 // Invalid arguments, flags or config.
	ExitErrorsFound = 2 // View produced and it contains errors.
	ExitFailure     = 3 // No view produced.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitErrorsFound:
			msg = "checkview: errors found"
		case ExitFailure:
			msg = "checkview: no view produced"
		default:
			msg = "checkview: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}

// failure wraps err with the exit code its failure kind calls for: bad
// input is the caller's fault, anything else is a failure to produce a view.
func failure(err error) *exitCodeError {
	kind := pipeline.Classify(err)
	code := ExitFailure
	if kind == pipeline.FailureInvalidParams {
		code = ExitInvalidArgs
	}
	return exitError(code, "checkview: %s: %s", kind, redact.String(err.Error()))
}
