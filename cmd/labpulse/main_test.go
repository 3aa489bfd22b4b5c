package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/exporter"
	"labpulse/internal/shared/testutil"
)

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func inputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteInputFile(t, dir, "runs.csv", testutil.RunsCSV)
	return dir
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestViewCommands(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantFiles []string
	}{
		{
			name:      "profile csv",
			args:      []string{"profile", "--profile", "P1"},
			wantFiles: []string{"profile_id_analysis_P1.csv"},
		},
		{
			name:      "profile xlsx",
			args:      []string{"profile", "--profile", "P1", "--format", "xlsx"},
			wantFiles: []string{"profile_id_analysis_P1.xlsx"},
		},
		{
			name:      "lots",
			args:      []string{"lots", "--profile", "P1"},
			wantFiles: []string{"lot_analysis_P1.csv"},
		},
		{
			name:      "trend with lab",
			args:      []string{"trend", "--profile", "P1", "--lab", "Lab A"},
			wantFiles: []string{"monthly_trend_P1_Lab_A.csv", "weekly_trend_P1_Lab_A.csv"},
		},
		{
			name:      "weekly",
			args:      []string{"weekly", "--profile", "P1"},
			wantFiles: []string{"weekly_analysis_P1_All_Labs.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputDir(t)
			out := t.TempDir()

			stdout, _, err := execute(t, append(tt.args, "--input", in, "--out", out)...)
			require.NoError(t, err)

			var want []string
			for _, name := range tt.wantFiles {
				path := filepath.Join(out, name)
				assert.FileExists(t, path)
				want = append(want, path)
			}
			assert.Equal(t, want, lines(stdout))
		})
	}
}

func TestProfileCSVContent(t *testing.T) {
	in := inputDir(t)
	out := t.TempDir()

	_, _, err := execute(t, "profile", "--profile", "P1", "--input", in, "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "profile_id_analysis_P1.csv"))
	require.NoError(t, err)

	headers, rows, err := exporter.ParseTable(data)
	require.NoError(t, err)
	assert.Equal(t, "Lab Name", headers[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "Lab A", rows[0][0])
	assert.Equal(t, "Lab B", rows[1][0])
}

func TestEmptySelection(t *testing.T) {
	in := inputDir(t)
	out := t.TempDir()

	stdout, _, err := execute(t, "trend", "--profile", "NOPE", "--input", in, "--out", out)
	require.NoError(t, err)

	assert.Equal(t, "no data for selection\n", stdout)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReportCommand(t *testing.T) {
	in := inputDir(t)
	out := t.TempDir()

	stdout, _, err := execute(t, "report", "--profile", "P1", "--input", in, "--out", out)
	require.NoError(t, err)

	written := lines(stdout)
	require.Len(t, written, 6)
	assert.Equal(t, filepath.Join(out, "summary_P1_All_Labs.json"), written[0])

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "P1", summary["profile"])
	assert.Equal(t, false, summary["empty"])
}

func TestFileFlag(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteInputFile(t, dir, "a.csv", testutil.RunsCSV)
	out := t.TempDir()

	stdout, stderr, err := execute(t, "profiles",
		"--file", first,
		"--file", filepath.Join(dir, "missing.csv"),
		"--out", out)
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2"}, lines(stdout))
	assert.Contains(t, stderr, "skipped")
}

func TestLabsCommand(t *testing.T) {
	stdout, _, err := execute(t, "labs", "--input", inputDir(t), "--out", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"Lab A", "Lab B"}, lines(stdout))
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "json format", args: []string{"profile", "--format", "json"}},
		{name: "unknown format", args: []string{"profile", "--format", "pdf"}},
		{name: "empty input dir", args: []string{"profile", "--input", "EMPTY"}},
		{name: "missing input dir", args: []string{"labs", "--input", "MISSING"}},
		{name: "extra args", args: []string{"profile", "P1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			args := make([]string, 0, len(tt.args)+2)
			for _, a := range tt.args {
				switch a {
				case "EMPTY":
					a = t.TempDir()
				case "MISSING":
					a = filepath.Join(root, "missing")
				}
				args = append(args, a)
			}
			args = append(args, "--out", root)

			_, _, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}
