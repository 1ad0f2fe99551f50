package runner

import (
	"fmt"
	"io"
	"strings"

	perrors "github.com/prophyle/prophex-match/internal/errors"
)

// Policy selects how a failed command is reported.
type Policy int

const (
	// PolicyRaise returns the failure as an error.
	PolicyRaise Policy = iota
	// PolicyTerminate exits the process with status 1.
	PolicyTerminate
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyRaise:
		return "raise"
	case PolicyTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Command describes one external command invocation.
type Command struct {
	// Args is the argument vector; Args[0] is the program.
	Args []string

	// OutputFile receives stdout, created or truncated for this call.
	OutputFile string

	// Output receives stdout. Takes precedence over the runner default;
	// io.Discard maps to the null device.
	Output io.Writer

	// ErrMsg is printed as a separate "Error: ..." line on failure.
	ErrMsg string

	// Policy selects error return or process termination on failure.
	Policy Policy

	// Silent suppresses the routine "Shell command" and "Finished" lines.
	Silent bool
}

// Cmd builds a Command from mixed tokens, rendering each with fmt.Sprint.
func Cmd(parts ...any) Command {
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		args = append(args, fmt.Sprint(p))
	}
	return Command{Args: args}
}

// Discarding returns a copy of c whose stdout goes to the null device.
func (c Command) Discarding() Command {
	c.Output = io.Discard
	c.OutputFile = ""
	return c
}

// ToFile returns a copy of c whose stdout goes to path.
func (c Command) ToFile(path string) Command {
	c.OutputFile = path
	c.Output = nil
	return c
}

// WithErrMsg returns a copy of c with a failure message.
func (c Command) WithErrMsg(msg string) Command {
	c.ErrMsg = msg
	return c
}

// Quiet returns a copy of c with routine logging suppressed.
func (c Command) Quiet() Command {
	c.Silent = true
	return c
}

// Validate checks the command before anything is spawned.
func (c Command) Validate() error {
	if len(c.Args) == 0 || c.Args[0] == "" {
		return perrors.New(perrors.ErrCodeInvalidCommand, "command is empty", nil)
	}
	if c.OutputFile != "" && c.Output != nil {
		return perrors.New(perrors.ErrCodeInvalidCommand,
			"command has both an output file and an output writer", nil).
			WithDetail("output_file", c.OutputFile)
	}
	if c.Policy == PolicyTerminate && c.ErrMsg == "" {
		return perrors.New(perrors.ErrCodeInvalidCommand,
			"a terminating command needs an error message", nil).
			WithSuggestion("set ErrMsg or use PolicyRaise")
	}
	if c.Policy != PolicyRaise && c.Policy != PolicyTerminate {
		return perrors.New(perrors.ErrCodeInvalidCommand,
			fmt.Sprintf("unknown failure policy %d", int(c.Policy)), nil)
	}
	return nil
}

// String renders the command line as it is logged and, in shell mode,
// executed. Tokens containing a space are wrapped in double quotes; other
// tokens are unchanged. Quote characters inside tokens are not escaped.
func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = quote(a)
	}
	return strings.Join(parts, " ")
}

func quote(token string) string {
	if strings.Contains(token, " ") {
		return `"` + token + `"`
	}
	return token
}
