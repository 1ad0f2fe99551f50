package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/prophyle/prophex-match/internal/logging"
	"github.com/prophyle/prophex-match/internal/runner"
)

// Stage is one step of the pipeline.
type Stage interface {
	// Name is used in headers and diagnostics.
	Name() string
	// Commands returns the commands the stage runs, in order.
	Commands() []runner.Command
	// Artifacts lists the files the stage is expected to produce.
	Artifacts() []string
}

// IndexBuilder builds the BWA index of the reference in four steps.
type IndexBuilder struct {
	BWA       string
	Reference string
}

// Name implements Stage.
func (b IndexBuilder) Name() string { return "bwa index" }

// Commands implements Stage.
func (b IndexBuilder) Commands() []runner.Command {
	fa := b.Reference
	return []runner.Command{
		runner.Cmd(b.BWA, "fa2pac", fa, fa),
		runner.Cmd(b.BWA, "pac2bwtgen", fa+".pac", fa+".bwt").Discarding(),
		runner.Cmd(b.BWA, "bwtupdate", fa+".bwt"),
		runner.Cmd(b.BWA, "bwt2sa", fa+".bwt", fa+".sa"),
	}
}

// Artifacts implements Stage.
func (b IndexBuilder) Artifacts() []string { return IndexArtifacts(b.Reference) }

// AuxIndexBuilder builds the k-LCP auxiliary index.
type AuxIndexBuilder struct {
	Prophex   string
	Reference string
	K         int
}

// Name implements Stage.
func (b AuxIndexBuilder) Name() string { return "klcp" }

// Commands implements Stage.
func (b AuxIndexBuilder) Commands() []runner.Command {
	return []runner.Command{
		runner.Cmd(b.Prophex, "build", "-k", b.K, b.Reference).Discarding(),
	}
}

// Artifacts implements Stage.
func (b AuxIndexBuilder) Artifacts() []string { return []string{KLCPPath(b.Reference, b.K)} }

// QueryRunner matches the reads against the index.
type QueryRunner struct {
	Prophex       string
	Reference     string
	Reads         string
	K             int
	Threads       int
	Verbose       bool
	RollingWindow bool
	Output        string
}

// Name implements Stage.
func (q QueryRunner) Name() string { return "query" }

// Commands implements Stage.
func (q QueryRunner) Commands() []runner.Command {
	args := []any{q.Prophex, "query"}
	if q.Verbose {
		args = append(args, "-v")
	}
	if q.RollingWindow {
		args = append(args, "-u")
	}
	args = append(args, "-k", q.K, "-t", q.Threads, q.Reference, q.Reads)

	c := runner.Cmd(args...)
	if q.Output != "" {
		c = c.ToFile(q.Output)
	}
	return []runner.Command{c}
}

// Artifacts implements Stage.
func (q QueryRunner) Artifacts() []string {
	if q.Output == "" {
		return nil
	}
	return []string{q.Output}
}

// runStage executes the commands of s in order and stops at the first failure.
func runStage(ctx context.Context, exec runner.Executor, s Stage, log *slog.Logger) error {
	for i, c := range s.Commands() {
		if err := exec.Run(ctx, c); err != nil {
			log.Debug("stage_failed", slog.String("stage", s.Name()), slog.Int("step", i+1))
			return err
		}
	}
	logArtifacts(log, s)
	return nil
}

func logArtifacts(log *slog.Logger, s Stage) {
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, path := range s.Artifacts() {
		attrs := []any{slog.String("stage", s.Name()), slog.String("path", path)}
		if info, err := os.Stat(path); err == nil {
			attrs = append(attrs, slog.Int64("size", info.Size()))
		} else {
			attrs = append(attrs, slog.Bool("missing", true))
		}
		log.Debug("artifact", attrs...)
	}
}

// header emits an upper-cased stage banner.
func header(l *logging.Logger, text string) {
	if l == nil {
		return
	}
	l.Emit(text, logging.Upper())
}
