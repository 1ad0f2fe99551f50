package cmd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTool records "<name> <args>" to $FAKE_CALLS, exits with $FAKE_CODE when
// its first argument equals $FAKE_FAIL, and prints a match line for query.
const fakeTool = `#!/bin/sh
echo "$(basename "$0") $*" >> "$FAKE_CALLS"
if [ "$1" = "$FAKE_FAIL" ]; then exit "${FAKE_CODE:-1}"; fi
if [ "$1" = "query" ]; then echo "U read1 0 0:0"; fi
exit 0
`

type workspace struct {
	dir     string
	bwa     string
	prophex string
	ref     string
	reads   string
	calls   string
}

// newWorkspace isolates configuration and creates fake tools and inputs.
func newWorkspace(t *testing.T) *workspace {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, key := range []string{
		"PROPHEX_MATCH_BWA", "PROPHEX_MATCH_PROPHEX", "PROPHEX_MATCH_SHELL",
		"PROPHEX_MATCH_LOG", "PROPHEX_MATCH_LOG_LEVEL", "PROPHEX_MATCH_THREADS",
		"PROPHEX_MATCH_LOCK", "PROPHEX_MATCH_BACKUP_KEEP", "FAKE_FAIL", "FAKE_CODE",
	} {
		t.Setenv(key, "")
	}

	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))

	w := &workspace{
		dir:     dir,
		bwa:     filepath.Join(bin, "bwa"),
		prophex: filepath.Join(bin, "prophex"),
		ref:     filepath.Join(dir, "ref.fa"),
		reads:   filepath.Join(dir, "reads.fq"),
		calls:   filepath.Join(dir, "calls.txt"),
	}
	require.NoError(t, os.WriteFile(w.bwa, []byte(fakeTool), 0o755))
	require.NoError(t, os.WriteFile(w.prophex, []byte(fakeTool), 0o755))
	require.NoError(t, os.WriteFile(w.ref, []byte(">chr1\nACGTACGTACGT\n"), 0o644))
	require.NoError(t, os.WriteFile(w.reads, []byte("@r1\nACGT\n+\nIIII\n"), 0o644))
	t.Setenv("FAKE_CALLS", w.calls)

	return w
}

// args prepends the fake tool flags.
func (w *workspace) args(extra ...string) []string {
	return append([]string{"--bwa", w.bwa, "--prophex", w.prophex}, extra...)
}

// recorded returns the tool invocations in order.
func (w *workspace) recorded(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(w.calls)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// execute runs the root command with args and captured output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
