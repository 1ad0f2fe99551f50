package pipeline

import (
	"fmt"
	"strconv"

	perrors "github.com/prophyle/prophex-match/internal/errors"
)

// Toolchain names the external executables.
type Toolchain struct {
	BWA     string
	Prophex string
}

// DefaultToolchain resolves both tools from PATH.
func DefaultToolchain() Toolchain {
	return Toolchain{BWA: "bwa", Prophex: "prophex"}
}

// Config is the parsed run configuration.
type Config struct {
	// K is the k-mer length. Required.
	K int

	// Threads is passed through to the query.
	Threads int

	// Verbose selects the verbose query output format.
	Verbose bool

	// RollingWindow builds the k-LCP and queries with it.
	RollingWindow bool

	// Reference is the FASTA the index is built from.
	Reference string

	// Reads is the FASTQ to match.
	Reads string

	// Output receives query results. Empty means the runner's stdout.
	Output string
}

// Validate checks the values that do not need the filesystem.
// Input files are checked by preflight.
func (c Config) Validate() error {
	if c.K <= 0 {
		return perrors.ValidationError(fmt.Sprintf("k-mer length must be positive, got %d", c.K), nil).
			WithDetail("k", strconv.Itoa(c.K))
	}
	if c.Threads <= 0 {
		return perrors.ValidationError(fmt.Sprintf("thread count must be positive, got %d", c.Threads), nil).
			WithDetail("threads", strconv.Itoa(c.Threads))
	}
	if c.Verbose && c.Threads > 1 {
		return perrors.ValidationError("verbose output requires a single thread", nil).
			WithDetail("threads", strconv.Itoa(c.Threads)).
			WithSuggestion("Drop -v or run with -t 1")
	}
	if c.Reference == "" {
		return perrors.ValidationError("no reference FASTA given", nil)
	}
	if c.Reads == "" {
		return perrors.ValidationError("no reads file given", nil)
	}
	return nil
}

// IndexArtifacts lists the BWA index files built for fa.
func IndexArtifacts(fa string) []string {
	return []string{
		fa + ".pac",
		fa + ".ann",
		fa + ".amb",
		fa + ".bwt",
		fa + ".sa",
	}
}

// KLCPPath returns the k-LCP file prophex builds for fa and k.
func KLCPPath(fa string, k int) string {
	return fmt.Sprintf("%s.%d.klcp", fa, k)
}
