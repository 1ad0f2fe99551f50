// Package errors provides structured error handling for prophex-match.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (inputs, locks, log sink)
//   - 4XX: Validation errors (flags, malformed commands)
//   - 5XX: Execution errors (external tools, internal faults)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryExecution indicates a failed external command or internal fault.
	CategoryExecution Category = "EXECUTION"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigParse   = "ERR_102_CONFIG_PARSE"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileUnreadable = "ERR_202_FILE_UNREADABLE"
	ErrCodeLockHeld       = "ERR_203_LOCK_HELD"
	ErrCodeLogSink        = "ERR_204_LOG_SINK"
	ErrCodeOutputFile     = "ERR_205_OUTPUT_FILE"

	// Validation errors (400-499)
	ErrCodeInvalidCommand = "ERR_401_INVALID_COMMAND"
	ErrCodeInvalidInput   = "ERR_402_INVALID_INPUT"

	// Execution errors (500-599)
	ErrCodeCommandFailed = "ERR_501_COMMAND_FAILED"
	ErrCodeInternal      = "ERR_502_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryExecution
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryExecution
	}
}
