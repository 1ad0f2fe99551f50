// Package cmd provides the CLI commands for prophex-match.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	perrors "github.com/prophyle/prophex-match/internal/errors"
	"github.com/prophyle/prophex-match/internal/output"
	"github.com/prophyle/prophex-match/pkg/version"
)

// runFlags holds the values bound to the root command's flags.
type runFlags struct {
	kmerLength    int
	threads       int
	verbose       bool
	rollingWindow bool

	output    string
	logFile   string
	bwa       string
	prophex   string
	lock      bool
	skipCheck bool
	shell     bool

	debug    bool
	debugLog string

	profileCPU   string
	profileMem   string
	profileTrace string
}

// NewRootCmd creates the root command for the prophex-match CLI.
func NewRootCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "prophex-match [flags] <in_fasta> <in_fq>",
		Short: "Single-command ProPhex matching",
		Long: `prophex-match builds a BWA index of the reference FASTA, optionally builds
the k-LCP auxiliary index, and matches the reads with prophex query.

Index files are written next to the reference:
  <in_fasta>.pac .ann .amb .bwt .sa    always
  <in_fasta>.<k>.klcp                  with -u

Matching results go to standard output unless -o is given.`,
		Example: `  # Match reads with k=31
  prophex-match -k 31 ref.fa reads.fq > matches.txt

  # Use the rolling window with k=11 and keep a log
  prophex-match -k 11 -u -l run.log ref.fa reads.fq`,
		Version:       version.Short(),
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runMatch(cmd.Context(), cmd, f, args[0], args[1])
		},
	}

	cmd.SetVersionTemplate("prophex-match version {{.Version}}\n")

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.IntVarP(&f.kmerLength, "kmer-length", "k", 0, "k-mer length (required)")
	flags.IntVarP(&f.threads, "threads", "t", 1, "number of query threads")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output format")
	flags.BoolVarP(&f.rollingWindow, "rolling-window", "u", false, "use rolling window (builds the k-LCP)")
	flags.StringVarP(&f.output, "output", "o", "", "write matching results to `FILE`")
	flags.StringVarP(&f.logFile, "log", "l", "", "append log lines to `FILE`")
	flags.StringVar(&f.bwa, "bwa", "", "bwa executable (default from config, then PATH)")
	flags.StringVar(&f.prophex, "prophex", "", "prophex executable (default from config, then PATH)")
	flags.BoolVar(&f.lock, "lock", false, "lock the reference for the whole run")
	flags.BoolVar(&f.skipCheck, "skip-check", false, "skip tool, permission and disk checks (inputs are always checked)")
	flags.BoolVar(&f.shell, "shell", false, "run commands through bash -e -o pipefail")
	_ = cmd.MarkFlagRequired("kmer-length")

	persistent := cmd.PersistentFlags()
	persistent.BoolVar(&f.debug, "debug", false, "enable debug logging to ~/.prophex-match/logs/")
	persistent.StringVar(&f.debugLog, "debug-log", "", "debug log `FILE` (implies --debug)")
	persistent.StringVar(&f.profileCPU, "profile-cpu", "", "write CPU profile to file")
	persistent.StringVar(&f.profileMem, "profile-mem", "", "write memory profile to file")
	persistent.StringVar(&f.profileTrace, "profile-trace", "", "write execution trace to file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command with SIGINT and SIGTERM cancelling the
// running child. Errors are reported on stderr before being returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		reportError(root.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err as the final "Error: ..." line. A failed command has
// already logged its line and exit code, so only the summary is printed.
func reportError(w io.Writer, err error) {
	out := output.New(w)

	switch perrors.GetCode(err) {
	case "":
		out.Error(err.Error())
	case perrors.ErrCodeCommandFailed:
		out.Error(perrors.CommandFailedMessage)
	default:
		out.Raw(perrors.FormatForCLI(err))
	}
}
