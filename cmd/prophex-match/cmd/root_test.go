package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/prophyle/prophex-match/internal/errors"
	"github.com/prophyle/prophex-match/internal/pipeline"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	stdout, _, err := execute(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "prophex-match [flags] <in_fasta> <in_fq>")
	assert.Contains(t, stdout, "-k, --kmer-length")
	assert.Contains(t, stdout, "-u, --rolling-window")
}

func TestRootCmd_RequiresKmerLength(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := execute(t, w.args(w.ref, w.reads)...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "kmer-length" not set`)
	assert.Equal(t, 1, perrors.ExitCode(err))
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_RequiresTwoPositionals(t *testing.T) {
	w := newWorkspace(t)

	tests := [][]string{
		{w.ref},
		{w.ref, w.reads, "extra.fq"},
	}

	for _, positional := range tests {
		_, _, err := execute(t, w.args(append([]string{"-k", "31"}, positional...)...)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 2 arg(s)")
	}
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_ScenarioA(t *testing.T) {
	// Given: fake tools and -k 31 with defaults
	w := newWorkspace(t)

	// When: running the pipeline
	stdout, stderr, err := execute(t, w.args("-k", "31", w.ref, w.reads)...)

	// Then: four bwa steps and one query run, the query writes to stdout
	require.NoError(t, err, stderr)
	assert.Equal(t, []string{
		"bwa fa2pac " + w.ref + " " + w.ref,
		"bwa pac2bwtgen " + w.ref + ".pac " + w.ref + ".bwt",
		"bwa bwtupdate " + w.ref + ".bwt",
		"bwa bwt2sa " + w.ref + ".bwt " + w.ref + ".sa",
		"prophex query -k 31 -t 1 " + w.ref + " " + w.reads,
	}, w.recorded(t))
	assert.Equal(t, "U read1 0 0:0\n", stdout)

	// And: every command is announced and finished in the prophyle format
	assert.Equal(t, 5, strings.Count(stderr, "Shell command: "))
	assert.Equal(t, 5, strings.Count(stderr, " Finished\n"))
	assert.Contains(t, stderr, "CREATING BWA INDEX")
	assert.Regexp(t, `\[prophyle\] \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} Shell command: `, stderr)
}

func TestRootCmd_ScenarioB(t *testing.T) {
	w := newWorkspace(t)

	_, stderr, err := execute(t, w.args("-k", "11", "-u", w.ref, w.reads)...)

	require.NoError(t, err, stderr)
	calls := w.recorded(t)
	require.Len(t, calls, 6)
	assert.Equal(t, "prophex build -k 11 "+w.ref, calls[4])
	assert.Equal(t, "prophex query -u -k 11 -t 1 "+w.ref+" "+w.reads, calls[5])
}

func TestRootCmd_FailurePropagatesExitCode(t *testing.T) {
	// Given: bwtupdate exits with status 2
	w := newWorkspace(t)
	t.Setenv("FAKE_FAIL", "bwtupdate")
	t.Setenv("FAKE_CODE", "2")

	// When: running with -u
	_, stderr, err := execute(t, w.args("-k", "31", "-u", w.ref, w.reads)...)

	// Then: nothing after step 3 runs and the child's status is the exit code
	require.Error(t, err)
	assert.Len(t, w.recorded(t), 3)
	assert.Equal(t, 2, perrors.ExitCode(err))
	assert.Contains(t, stderr, "Unfinished, an error occurred (error code 2): "+w.bwa+" bwtupdate "+w.ref+".bwt")
}

func TestRootCmd_VerboseNeedsSingleThread(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := execute(t, w.args("-k", "31", "-v", "-t", "4", w.ref, w.reads)...)

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeInvalidInput, perrors.GetCode(err))
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_VerboseQuery(t *testing.T) {
	w := newWorkspace(t)

	_, stderr, err := execute(t, w.args("-k", "31", "-v", w.ref, w.reads)...)

	require.NoError(t, err, stderr)
	calls := w.recorded(t)
	assert.Equal(t, "prophex query -v -k 31 -t 1 "+w.ref+" "+w.reads, calls[len(calls)-1])
}

func TestRootCmd_MissingReads(t *testing.T) {
	w := newWorkspace(t)

	_, stderr, err := execute(t, w.args("-k", "31", w.ref, filepath.Join(w.dir, "missing.fq"))...)

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeFileNotFound, perrors.GetCode(err))
	assert.Contains(t, stderr, "[FAIL] reads")
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_MissingTool(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := execute(t, "--bwa", filepath.Join(w.dir, "nope"), "--prophex", w.prophex, "-k", "31", w.ref, w.reads)

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeConfigInvalid, perrors.GetCode(err))
}

func TestRootCmd_SkipCheckReportsMissingBinary(t *testing.T) {
	// Given: preflight is skipped and bwa does not exist
	w := newWorkspace(t)

	// When: running
	_, stderr, err := execute(t, "--skip-check", "--bwa", filepath.Join(w.dir, "nope"), "--prophex", w.prophex, "-k", "31", w.ref, w.reads)

	// Then: the first step fails as "command not found"
	require.Error(t, err)
	assert.Equal(t, 127, perrors.ExitCode(err))
	assert.Contains(t, stderr, "error code 127")
}

func TestRootCmd_SkipCheckStillChecksInputs(t *testing.T) {
	// Given: preflight is skipped and the reads file does not exist
	w := newWorkspace(t)

	// When: running
	_, stderr, err := execute(t, w.args("--skip-check", "-k", "31", w.ref, filepath.Join(w.dir, "does-not-exist.fq"))...)

	// Then: the run stops before any tool is invoked
	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeFileNotFound, perrors.GetCode(err))
	assert.Contains(t, stderr, "[FAIL] reads")
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_DiagnosticsGoToCommandStderr(t *testing.T) {
	// Given: diagnostics at info level
	w := newWorkspace(t)
	t.Setenv("PROPHEX_MATCH_LOG_LEVEL", "info")

	// When: running
	_, stderr, err := execute(t, w.args("-k", "31", w.ref, w.reads)...)

	// Then: the JSON records land on the command's stderr writer
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, `"msg":"run_started"`)
}

func TestRootCmd_OutputFile(t *testing.T) {
	w := newWorkspace(t)
	out := filepath.Join(w.dir, "matches.txt")

	stdout, stderr, err := execute(t, w.args("-k", "31", "-o", out, w.ref, w.reads)...)

	require.NoError(t, err, stderr)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "U read1 0 0:0\n", string(data))
}

func TestRootCmd_LogFile(t *testing.T) {
	// Given: a persistent log file
	w := newWorkspace(t)
	logPath := filepath.Join(w.dir, "logs", "run.log")

	// When: running
	_, stderr, err := execute(t, w.args("-k", "31", "-l", logPath, w.ref, w.reads)...)

	// Then: the log holds every screen line plus the sink-only config record
	require.NoError(t, err, stderr)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logged := string(data)
	assert.Equal(t, 5, strings.Count(logged, "Shell command: "))
	assert.Contains(t, logged, "k=31 threads=1")
	assert.NotContains(t, stderr, "k=31 threads=1")
}

func TestRootCmd_LockHeld(t *testing.T) {
	w := newWorkspace(t)
	held := pipeline.NewReferenceLock(w.ref)
	require.NoError(t, held.Acquire())
	t.Cleanup(func() { _ = held.Release() })

	_, _, err := execute(t, w.args("-k", "31", "--lock", w.ref, w.reads)...)

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeLockHeld, perrors.GetCode(err))
	assert.Nil(t, w.recorded(t))
}

func TestRootCmd_ToolsFromEnvironment(t *testing.T) {
	w := newWorkspace(t)
	t.Setenv("PROPHEX_MATCH_BWA", w.bwa)
	t.Setenv("PROPHEX_MATCH_PROPHEX", w.prophex)

	_, stderr, err := execute(t, "-k", "31", w.ref, w.reads)

	require.NoError(t, err, stderr)
	assert.Len(t, w.recorded(t), 5)
}

func TestRootCmd_ShellMode(t *testing.T) {
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("bash not available")
	}
	w := newWorkspace(t)

	stdout, stderr, err := execute(t, w.args("-k", "31", "--shell", w.ref, w.reads)...)

	require.NoError(t, err, stderr)
	assert.Len(t, w.recorded(t), 5)
	assert.Equal(t, "U read1 0 0:0\n", stdout)
}

func TestRootCmd_ThreadsFromEnvironment(t *testing.T) {
	w := newWorkspace(t)
	t.Setenv("PROPHEX_MATCH_THREADS", "3")

	_, stderr, err := execute(t, w.args("-k", "31", w.ref, w.reads)...)

	require.NoError(t, err, stderr)
	calls := w.recorded(t)
	assert.Equal(t, "prophex query -k 31 -t 3 "+w.ref+" "+w.reads, calls[len(calls)-1])
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error",
			err:  errors.New(`unknown flag: --frobnicate`),
			want: "Error: unknown flag: --frobnicate\n",
		},
		{
			name: "command failure",
			err:  perrors.CommandError("bwa bwtupdate ref.fa.bwt", 2, nil),
			want: "Error: A command failed, see messages above.\n",
		},
		{
			name: "other pipeline error",
			err:  perrors.ValidationError("verbose output requires a single thread", nil).WithSuggestion("Drop -v"),
			want: "Error: verbose output requires a single thread\n  Hint: Drop -v\n  Code: ERR_402_INVALID_INPUT\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
