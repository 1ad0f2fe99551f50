package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prophyle/prophex-match/internal/config"
	perrors "github.com/prophyle/prophex-match/internal/errors"
	"github.com/prophyle/prophex-match/internal/logging"
	"github.com/prophyle/prophex-match/internal/pipeline"
	"github.com/prophyle/prophex-match/internal/preflight"
	"github.com/prophyle/prophex-match/internal/profiling"
	"github.com/prophyle/prophex-match/internal/runner"
	"github.com/prophyle/prophex-match/pkg/version"
)

// runMatch resolves the effective settings and drives the pipeline.
// Flags win over PROPHEX_MATCH_* variables, which win over config files.
func runMatch(ctx context.Context, cmd *cobra.Command, f *runFlags, fasta, fastq string) (err error) {
	stderr := cmd.ErrOrStderr()

	prof, err := profiling.Start(profiling.Options{CPU: f.profileCPU, Mem: f.profileMem, Trace: f.profileTrace})
	if err != nil {
		return perrors.New(perrors.ErrCodeInternal, "failed to start profiling", err)
	}
	defer func() {
		if stopErr := prof.Stop(); stopErr != nil && err == nil {
			err = perrors.New(perrors.ErrCodeInternal, "failed to write profile", stopErr)
		}
	}()

	cwd, err := os.Getwd()
	if err != nil {
		return perrors.New(perrors.ErrCodeInternal, "failed to get current directory", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return perrors.New(perrors.ErrCodeConfigParse, err.Error(), err).
			WithSuggestion("Run 'prophex-match config show --source defaults' for a valid layout")
	}
	applyFlags(cmd, f, cfg)

	log, closeLog, err := setupSlog(f, cfg, stderr)
	if err != nil {
		return perrors.New(perrors.ErrCodeLogSink, "failed to set up debug logging", err)
	}
	defer closeLog()
	defer func() {
		if err != nil {
			log.Debug("run_failed", perrors.FormatForLog(err)...)
		}
	}()

	sink := logging.NewSink()
	if cfg.Logging.File != "" {
		if err := sink.Open(cfg.Logging.File); err != nil {
			return perrors.New(perrors.ErrCodeLogSink, fmt.Sprintf("cannot open log file %s", cfg.Logging.File), err)
		}
	}
	defer func() { _ = sink.Close() }()

	logger := logging.NewLogger(logging.WithScreen(stderr), logging.WithSink(sink))

	pcfg := pipeline.Config{
		K:             f.kmerLength,
		Threads:       cfg.Pipeline.Threads,
		Verbose:       f.verbose,
		RollingWindow: f.rollingWindow,
		Reference:     fasta,
		Reads:         fastq,
		Output:        f.output,
	}
	if err := pcfg.Validate(); err != nil {
		return err
	}
	tools := pipeline.Toolchain{BWA: cfg.Tools.BWA, Prophex: cfg.Tools.Prophex}

	log.Info("run_started",
		slog.String("version", version.Short()),
		slog.String("reference", fasta),
		slog.String("reads", fastq),
		slog.Int("k", pcfg.K),
		slog.Int("threads", pcfg.Threads),
		slog.String("bwa", tools.BWA),
		slog.String("prophex", tools.Prophex),
		slog.Bool("shell", cfg.Tools.Shell),
		slog.String("log_file", sink.Path()))

	if err := runPreflight(ctx, stderr, f.debug, f.skipCheck, pcfg, tools); err != nil {
		return err
	}

	if cfg.Pipeline.Lock {
		lock := pipeline.NewReferenceLock(fasta)
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
		log.Debug("reference_locked", slog.String("lock", lock.Path()))
	}

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSlog(log),
		runner.WithStdin(cmd.InOrStdin()),
		runner.WithStdout(cmd.OutOrStdout()),
		runner.WithStderr(stderr),
	}
	if cfg.Tools.Shell {
		opts = append(opts, runner.WithShell(runner.DefaultShell))
	}

	p := pipeline.New(pcfg, runner.New(opts...),
		pipeline.WithToolchain(tools),
		pipeline.WithLogger(logger),
		pipeline.WithSlog(log))
	return p.Run(ctx)
}

// applyFlags folds explicitly set flags into cfg.
func applyFlags(cmd *cobra.Command, f *runFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("threads") {
		cfg.Pipeline.Threads = f.threads
	}
	if f.bwa != "" {
		cfg.Tools.BWA = f.bwa
	}
	if f.prophex != "" {
		cfg.Tools.Prophex = f.prophex
	}
	if f.logFile != "" {
		cfg.Logging.File = f.logFile
	}
	if f.lock {
		cfg.Pipeline.Lock = true
	}
	if f.shell {
		cfg.Tools.Shell = true
	}
	if f.debugLog != "" {
		f.debug = true
	}
}

// setupSlog builds the diagnostics logger: the debug file with --debug,
// otherwise stderr at the configured level.
func setupSlog(f *runFlags, cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	lc := logging.DefaultConfig(stderr)
	lc.Level = cfg.Logging.Level
	if f.debug {
		lc = logging.DebugConfig()
		if f.debugLog != "" {
			lc.FilePath = f.debugLog
		}
	}
	return logging.Setup(lc)
}

// runPreflight checks inputs and tools before anything is built. With
// inputsOnly only the reference and reads are checked; they must exist
// before the first stage runs.
func runPreflight(ctx context.Context, stderr io.Writer, verbose, inputsOnly bool, pcfg pipeline.Config, tools pipeline.Toolchain) error {
	checker := preflight.New(preflight.WithOutput(stderr), preflight.WithVerbose(verbose))
	in := preflight.Inputs{
		Reference: pcfg.Reference,
		Reads:     pcfg.Reads,
		BWA:       tools.BWA,
		Prophex:   tools.Prophex,
	}

	var results []preflight.CheckResult
	if inputsOnly {
		results = checker.RunInputs(in)
	} else {
		results = checker.RunAll(ctx, in)
	}
	checker.PrintResults(results)

	failed, ok := checker.FirstCritical(results)
	if !ok {
		return nil
	}

	switch failed.Name {
	case "reference", "reads":
		return perrors.New(perrors.ErrCodeFileNotFound, failed.Message, nil).
			WithDetail("check", failed.Name)
	case "bwa", "prophex":
		return perrors.ConfigError(failed.Message, nil).
			WithDetail("check", failed.Name).
			WithSuggestion(fmt.Sprintf("Install %s or point --%s at it", failed.Name, failed.Name))
	default:
		return perrors.New(perrors.ErrCodeFileUnreadable, failed.Message, nil).
			WithDetail("check", failed.Name)
	}
}
