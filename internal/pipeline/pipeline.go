package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prophyle/prophex-match/internal/logging"
	"github.com/prophyle/prophex-match/internal/runner"
)

// Pipeline drives the stages for one Config.
type Pipeline struct {
	cfg    Config
	tools  Toolchain
	exec   runner.Executor
	logger *logging.Logger
	slog   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithToolchain overrides the executables.
func WithToolchain(t Toolchain) Option {
	return func(p *Pipeline) {
		p.tools = t
	}
}

// WithLogger sets the line logger used for stage banners.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithSlog sets the structured diagnostics logger.
func WithSlog(l *slog.Logger) Option {
	return func(p *Pipeline) {
		p.slog = l
	}
}

// New creates a Pipeline. The executor runs every command.
func New(cfg Config, exec runner.Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:   cfg,
		tools: DefaultToolchain(),
		exec:  exec,
		slog:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the stages Run would execute, in order.
func (p *Pipeline) Stages() []Stage {
	stages := []Stage{
		IndexBuilder{BWA: p.tools.BWA, Reference: p.cfg.Reference},
	}
	if p.cfg.RollingWindow {
		stages = append(stages, AuxIndexBuilder{
			Prophex:   p.tools.Prophex,
			Reference: p.cfg.Reference,
			K:         p.cfg.K,
		})
	}
	stages = append(stages, QueryRunner{
		Prophex:       p.tools.Prophex,
		Reference:     p.cfg.Reference,
		Reads:         p.cfg.Reads,
		K:             p.cfg.K,
		Threads:       p.cfg.Threads,
		Verbose:       p.cfg.Verbose,
		RollingWindow: p.cfg.RollingWindow,
		Output:        p.cfg.Output,
	})
	return stages
}

// Run validates the config and executes every stage in order.
// The first failure is returned unchanged; later stages do not run.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	p.logConfig()

	for _, s := range p.Stages() {
		header(p.logger, bannerFor(s))
		if err := runStage(ctx, p.exec, s, p.slog); err != nil {
			return err
		}
	}
	return nil
}

// logConfig records the effective run settings in the log sink only.
func (p *Pipeline) logConfig() {
	if p.logger == nil {
		return
	}
	p.logger.Emit(fmt.Sprintf("reference=%s reads=%s k=%d threads=%d verbose=%t rolling_window=%t",
		p.cfg.Reference, p.cfg.Reads, p.cfg.K, p.cfg.Threads, p.cfg.Verbose, p.cfg.RollingWindow),
		logging.OnlyLog())
}

func bannerFor(s Stage) string {
	switch s.(type) {
	case IndexBuilder:
		return "Creating BWA index"
	case AuxIndexBuilder:
		return "Creating k-LCP"
	case QueryRunner:
		return "Matching reads"
	default:
		return strings.TrimSpace(s.Name())
	}
}
