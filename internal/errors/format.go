package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var pe *PipelineError
	if !errors.As(err, &pe) {
		pe = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", pe.Message))
	if pe.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", pe.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", pe.Code))

	return sb.String()
}

// FormatForLog flattens an error into slog-friendly key/value pairs.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	var pe *PipelineError
	if !errors.As(err, &pe) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", pe.Code,
		"error_category", string(pe.Category),
		"error", pe.Message,
	}

	keys := make([]string, 0, len(pe.Details))
	for k := range pe.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, pe.Details[k])
	}

	if pe.Cause != nil {
		attrs = append(attrs, "cause", pe.Cause.Error())
	}

	return attrs
}
