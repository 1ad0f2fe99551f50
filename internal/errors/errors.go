package errors

import (
	"errors"
	"fmt"
	"strconv"
)

// PipelineError is the structured error type for prophex-match.
// It carries enough context for logging and for choosing the process exit status.
type PipelineError struct {
	// Code is the unique error code (e.g., "ERR_501_COMMAND_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category derived from Code.
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches another PipelineError by code, so errors.Is works against sentinels.
func (e *PipelineError) Is(target error) bool {
	if t, ok := target.(*PipelineError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *PipelineError) WithDetail(key, value string) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PipelineError with the given code and message.
func New(code string, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a PipelineError from an existing error.
func Wrap(code string, err error) *PipelineError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PipelineError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *PipelineError {
	return New(ErrCodeInvalidInput, message, cause)
}

// CommandFailedMessage is the message of every CommandError. The command line
// and exit code have already been logged when it is reported.
const CommandFailedMessage = "A command failed, see messages above."

// CommandError creates an error for an external command that exited unsuccessfully.
func CommandError(line string, exitCode int, cause error) *PipelineError {
	return New(ErrCodeCommandFailed, CommandFailedMessage, cause).
		WithDetail("command", line).
		WithDetail("exit_code", strconv.Itoa(exitCode))
}

// GetCode extracts the error code from a PipelineError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// ExitCode picks the process exit status for err.
// A failed command propagates the child's status when it fits in 1..255;
// everything else maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *PipelineError
	if errors.As(err, &pe) && pe.Code == ErrCodeCommandFailed {
		if code, convErr := strconv.Atoi(pe.Details["exit_code"]); convErr == nil && code > 0 && code < 256 {
			return code
		}
	}
	return 1
}
