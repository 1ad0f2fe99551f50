package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Inputs are the files and tools a run depends on.
type Inputs struct {
	Reference string
	Reads     string
	BWA       string
	Prophex   string
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer

	// For testing
	lookPath func(file string) (string, error)
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints passing checks too.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:   os.Stderr,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check concurrently and returns the results in a fixed
// order. None of the checks spawn processes.
func (c *Checker) RunAll(ctx context.Context, in Inputs) []CheckResult {
	checks := []func() CheckResult{
		func() CheckResult { return c.CheckInputFile("reference", in.Reference) },
		func() CheckResult { return c.CheckInputFile("reads", in.Reads) },
		func() CheckResult { return c.CheckTool("bwa", in.BWA) },
		func() CheckResult { return c.CheckTool("prophex", in.Prophex) },
		func() CheckResult { return c.CheckWritePermissions(filepath.Dir(in.Reference)) },
		func() CheckResult { return c.CheckDiskSpace(filepath.Dir(in.Reference), fileSize(in.Reference)) },
	}

	results := make([]CheckResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = CheckResult{Name: "cancelled", Status: StatusFail, Message: err.Error(), Required: true}
				return err
			}
			results[i] = check()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// RunInputs checks only the reference and reads files. These checks hold
// even when the tool and environment checks are skipped.
func (c *Checker) RunInputs(in Inputs) []CheckResult {
	return []CheckResult{
		c.CheckInputFile("reference", in.Reference),
		c.CheckInputFile("reads", in.Reads),
	}
}

// FirstCritical returns the first required check that failed.
func (c *Checker) FirstCritical(results []CheckResult) (CheckResult, bool) {
	for _, r := range results {
		if r.IsCritical() {
			return r, true
		}
	}
	return CheckResult{}, false
}

// PrintResults prints failures and warnings, and passes when verbose.
func (c *Checker) PrintResults(results []CheckResult) {
	for _, r := range results {
		if r.Status == StatusPass && !c.verbose {
			continue
		}
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
	}
}

// CheckInputFile checks that path names an existing, readable regular file.
func (c *Checker) CheckInputFile(name, path string) CheckResult {
	result := CheckResult{
		Name:     name,
		Required: true,
	}

	if strings.TrimSpace(path) == "" {
		result.Status = StatusFail
		result.Message = "no path given"
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", path, err)
		return result
	}
	if !info.Mode().IsRegular() {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not a regular file", path)
		return result
	}

	f, err := os.Open(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not readable: %v", path, err)
		return result
	}
	_ = f.Close()

	result.Status = StatusPass
	result.Message = path
	return result
}

// CheckTool checks that an executable can be resolved.
func (c *Checker) CheckTool(name, path string) CheckResult {
	result := CheckResult{
		Name:     name,
		Required: true,
	}

	resolved, err := c.lookPath(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot find %s executable %q: %v", name, path, err)
		return result
	}

	result.Status = StatusPass
	result.Message = resolved
	return result
}

// CheckWritePermissions checks that index artifacts can be created in dir.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: true,
	}

	f, err := os.CreateTemp(dir, ".prophex-match-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write index files to %s: %v", dir, err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
