package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	perrors "github.com/prophyle/prophex-match/internal/errors"
	"github.com/prophyle/prophex-match/internal/logging"
	"github.com/prophyle/prophex-match/internal/output"
)

// Exit statuses with a fixed meaning.
const (
	// ExitBrokenPipe is 128+SIGPIPE and counts as success.
	ExitBrokenPipe = 141
	// ExitNotFound is reported when the program cannot be started.
	ExitNotFound = 127
	// ExitInterrupted is reported when the run context was cancelled.
	ExitInterrupted = 130
)

// DefaultShell is the strict-mode shell used when shell execution is enabled.
var DefaultShell = []string{"/bin/bash", "-e", "-o", "pipefail", "-c"}

// Executor runs a single command. The pipeline stages depend on this
// interface so tests can record invocations without spawning processes.
type Executor interface {
	Run(ctx context.Context, c Command) error
}

// Runner executes commands one at a time.
type Runner struct {
	logger *logging.Logger
	slog   *slog.Logger
	errOut *output.Writer
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	shell  []string

	// For testing: override process creation and termination
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
	exit        func(code int)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the prophyle line logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithSlog sets the structured debug logger.
func WithSlog(l *slog.Logger) Option {
	return func(r *Runner) {
		r.slog = l
	}
}

// WithStdout sets the default stdout of children (default os.Stdout).
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets stderr of children and the destination of "Error:" lines
// (default os.Stderr).
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// WithStdin sets stdin of children (default os.Stdin).
func WithStdin(rd io.Reader) Option {
	return func(r *Runner) {
		r.stdin = rd
	}
}

// WithShell runs every command line through the given shell argv, e.g.
// DefaultShell. A nil or empty shell means direct execution.
func WithShell(shell []string) Option {
	return func(r *Runner) {
		r.shell = shell
	}
}

// WithExit overrides the function used by PolicyTerminate (default os.Exit).
func WithExit(exit func(code int)) Option {
	return func(r *Runner) {
		r.exit = exit
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		execCommand: exec.CommandContext,
		exit:        os.Exit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewLogger(logging.WithScreen(r.stderr))
	}
	if r.slog == nil {
		r.slog = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if r.errOut == nil {
		r.errOut = output.New(r.stderr)
	}
	return r
}

// Run executes c and blocks until the child exits.
func (r *Runner) Run(ctx context.Context, c Command) error {
	if err := c.Validate(); err != nil {
		return err
	}

	line := c.String()
	if !c.Silent {
		r.logger.Emit("Shell command: " + line)
	}

	stdout, closeOut, err := r.resolveOutput(c)
	if err != nil {
		return err
	}
	defer closeOut()

	cmd := r.build(ctx, c, line)
	cmd.Stdin = r.stdin
	cmd.Stdout = stdout
	cmd.Stderr = r.stderr

	start := time.Now()
	runErr := cmd.Run()
	code := exitStatus(ctx, runErr)

	r.slog.Debug("command_finished",
		slog.String("command", line),
		slog.Int("exit_code", code),
		slog.Duration("duration", time.Since(start)),
		slog.String("policy", c.Policy.String()))

	if Succeeded(code) {
		if !c.Silent {
			r.logger.Emit("Finished")
		}
		return nil
	}

	r.logger.Emit(fmt.Sprintf("Unfinished, an error occurred (error code %d): %s", code, line))
	if c.ErrMsg != "" {
		r.errOut.Error(c.ErrMsg)
	}

	failure := perrors.CommandError(line, code, runErr)
	if c.ErrMsg != "" {
		failure.WithSuggestion(c.ErrMsg)
	}

	if c.Policy == PolicyTerminate {
		closeOut()
		r.exit(1)
	}
	return failure
}

// Succeeded reports whether an exit status counts as success.
func Succeeded(code int) bool {
	return code == 0 || code == ExitBrokenPipe
}

func (r *Runner) build(ctx context.Context, c Command, line string) *exec.Cmd {
	if len(r.shell) > 0 {
		args := append(append([]string{}, r.shell[1:]...), line)
		return r.execCommand(ctx, r.shell[0], args...)
	}
	return r.execCommand(ctx, c.Args[0], c.Args[1:]...)
}

// resolveOutput picks the child's stdout: writer, then file, then the
// runner default. The returned close function is safe to call twice.
func (r *Runner) resolveOutput(c Command) (io.Writer, func(), error) {
	noop := func() {}

	switch {
	case c.Output == io.Discard:
		return nil, noop, nil
	case c.Output != nil:
		return c.Output, noop, nil
	case c.OutputFile != "":
		f, err := os.Create(c.OutputFile)
		if err != nil {
			return nil, noop, perrors.New(perrors.ErrCodeOutputFile,
				fmt.Sprintf("cannot open output file %s", c.OutputFile), err)
		}
		var once sync.Once
		return f, func() {
			once.Do(func() { _ = f.Close() })
		}, nil
	default:
		return r.stdout, noop, nil
	}
}

// exitStatus converts the result of exec.Cmd.Run into a shell-style status.
func exitStatus(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	if ctx.Err() != nil {
		return ExitInterrupted
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}

	var pathErr *fs.PathError
	if errors.Is(err, exec.ErrNotFound) || errors.As(err, &pathErr) {
		return ExitNotFound
	}
	return 1
}
