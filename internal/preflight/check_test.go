package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func fakeLookPath(known ...string) func(string) (string, error) {
	return func(file string) (string, error) {
		for _, k := range known {
			if k == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", CheckStatus(42).String())
}

func TestCheckInputFile(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">chr1\nACGT\n")

	c := New()

	tests := []struct {
		name   string
		path   string
		status CheckStatus
	}{
		{"existing file", ref, StatusPass},
		{"missing file", filepath.Join(dir, "missing.fa"), StatusFail},
		{"directory", dir, StatusFail},
		{"empty path", "", StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.CheckInputFile("reference", tt.path)
			assert.Equal(t, tt.status, r.Status, r.Message)
			assert.True(t, r.Required)
		})
	}
}

func TestCheckTool(t *testing.T) {
	c := New()
	c.lookPath = fakeLookPath("bwa")

	pass := c.CheckTool("bwa", "bwa")
	fail := c.CheckTool("prophex", "prophex")

	assert.Equal(t, StatusPass, pass.Status)
	assert.Equal(t, "/usr/bin/bwa", pass.Message)
	assert.Equal(t, StatusFail, fail.Status)
	assert.Contains(t, fail.Message, `cannot find prophex executable "prophex"`)
}

func TestCheckWritePermissions_LeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()

	r := New().CheckWritePermissions(dir)

	assert.Equal(t, StatusPass, r.Status)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckWritePermissions_MissingDir(t *testing.T) {
	r := New().CheckWritePermissions(filepath.Join(t.TempDir(), "gone"))

	assert.Equal(t, StatusFail, r.Status)
	assert.True(t, r.IsCritical())
}

func TestCheckDiskSpace_NeverCritical(t *testing.T) {
	c := New()

	small := c.CheckDiskSpace(t.TempDir(), 10)
	huge := c.CheckDiskSpace(t.TempDir(), 1<<60)
	missing := c.CheckDiskSpace(filepath.Join(t.TempDir(), "gone"), 10)

	assert.False(t, small.IsCritical())
	assert.Equal(t, StatusWarn, huge.Status)
	assert.False(t, huge.IsCritical())
	assert.Equal(t, StatusWarn, missing.Status)
}

func TestRunAll_OrderAndCriticalFailures(t *testing.T) {
	// Given: a valid reference but missing reads and a missing prophex binary
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">chr1\nACGT\n")

	c := New()
	c.lookPath = fakeLookPath("bwa")

	// When: running all checks
	results := c.RunAll(context.Background(), Inputs{
		Reference: ref,
		Reads:     filepath.Join(dir, "reads.fq"),
		BWA:       "bwa",
		Prophex:   "prophex",
	})

	// Then: results come back in a fixed order
	require.Len(t, results, 6)
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"reference", "reads", "bwa", "prophex", "write_permissions", "disk_space"}, names)

	// And: the first critical failure is the reads file
	first, ok := c.FirstCritical(results)
	require.True(t, ok)
	assert.Equal(t, "reads", first.Name)
}

func TestRunAll_AllPass(t *testing.T) {
	dir := t.TempDir()
	c := New()
	c.lookPath = fakeLookPath("bwa", "prophex")

	results := c.RunAll(context.Background(), Inputs{
		Reference: writeFile(t, dir, "ref.fa", ">chr1\nACGT\n"),
		Reads:     writeFile(t, dir, "reads.fq", "@r1\nACGT\n+\nIIII\n"),
		BWA:       "bwa",
		Prophex:   "prophex",
	})

	_, ok := c.FirstCritical(results)
	assert.False(t, ok)
}

func TestPrintResults_HidesPassesUnlessVerbose(t *testing.T) {
	results := []CheckResult{
		{Name: "reference", Status: StatusPass, Message: "ref.fa", Required: true},
		{Name: "reads", Status: StatusFail, Message: "reads.fq: no such file", Required: true},
	}

	var quiet, verbose bytes.Buffer
	New(WithOutput(&quiet)).PrintResults(results)
	New(WithOutput(&verbose), WithVerbose(true)).PrintResults(results)

	assert.Equal(t, "[FAIL] reads: reads.fq: no such file\n", quiet.String())
	assert.Contains(t, verbose.String(), "[PASS] reference: ref.fa\n")
	assert.Contains(t, verbose.String(), "[FAIL] reads")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "100.0 MB", formatBytes(MinDiskSpaceBytes))
}

func TestRunInputs_OnlyChecksFiles(t *testing.T) {
	// Given: a valid reference, missing reads and tools that cannot resolve
	dir := t.TempDir()
	c := New()
	c.lookPath = fakeLookPath()

	// When: running only the input checks
	results := c.RunInputs(Inputs{
		Reference: writeFile(t, dir, "ref.fa", ">chr1\nACGT\n"),
		Reads:     filepath.Join(dir, "missing.fq"),
		BWA:       "bwa",
		Prophex:   "prophex",
	})

	// Then: the tools are not looked at and the reads failure is critical
	require.Len(t, results, 2)
	assert.Equal(t, "reference", results[0].Name)
	assert.Equal(t, StatusPass, results[0].Status)
	first, ok := c.FirstCritical(results)
	require.True(t, ok)
	assert.Equal(t, "reads", first.Name)
}
