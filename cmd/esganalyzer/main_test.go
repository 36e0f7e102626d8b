package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	"esgcli/internal/shared/testutil"
)

// writeConfig points every relative path of a run at dir
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "esg.yaml")
	body := "paths:\n  base_dir: " + dir + "\n  output_dir: reports\n  logs_dir: logs\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, exitUsage},
		{"unknown command", []string{"scrape"}, exitUsage},
		{"help", []string{"help"}, exitOK},
		{"version", []string{"version"}, exitOK},
		{"analyze without input", []string{"analyze"}, exitUsage},
		{"schema without input", []string{"schema"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRun_Analyze(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := testutil.WriteCSV(t, dir, "ratings.csv", testutil.RatingsHeader, testutil.RatingsRows)

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze", "-input", input, "-config", cfg, "-formats", "json, csv", "-top", "3"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "record_count")
	assert.Contains(t, stdout.String(), "wrote ")

	out := filepath.Join(dir, "reports")
	assert.FileExists(t, filepath.Join(out, config.ReportJSONFile))
	assert.FileExists(t, filepath.Join(out, config.SummaryCSVFile))
	assert.FileExists(t, filepath.Join(out, "run_manifest.json"))
}

func TestRun_AnalyzeDirectoryInput(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	inputs := filepath.Join(dir, "downloads")
	require.NoError(t, os.Mkdir(inputs, 0755))
	testutil.WriteCSV(t, inputs, "ratings.csv", testutil.RatingsHeader, testutil.RatingsRows)

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze", "-input", inputs, "-config", cfg, "-formats", "json"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, filepath.Join(dir, "reports", config.ReportJSONFile))
}

func TestRun_AnalyzeFatalErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := testutil.WriteCSV(t, dir, "ratings.csv", testutil.RatingsHeader, testutil.RatingsRows)

	tests := []struct {
		name       string
		args       []string
		wantDetail string
	}{
		{"missing input", []string{"-input", filepath.Join(dir, "nope.csv"), "-config", cfg}, ""},
		{"missing config", []string{"-input", input, "-config", filepath.Join(dir, "nope.yaml")}, ""},
		{"unknown scale", []string{"-input", input, "-config", cfg, "-scale", "sp"}, "scale: sp"},
		{"unknown format", []string{"-input", input, "-config", cfg, "-formats", "parquet"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(append([]string{"analyze"}, tt.args...), &stdout, &stderr)
			assert.Equal(t, exitFatal, code)
			assert.Contains(t, stderr.String(), "error:")
			assert.Contains(t, stderr.String(), tt.wantDetail)
		})
	}
}

func TestRun_AnalyzeWarnsOnGaps(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := testutil.WriteCSV(t, dir, "narrow.csv",
		[]string{"ISSUER_NAME", "IVA_COMPANY_RATING", "ENVIRONMENTAL_PILLAR_SCORE"},
		[][]string{{"Acme", "AA", "6.1"}, {"Borealis", "BBB", "4.0"}})

	var stdout, stderr bytes.Buffer
	code := run([]string{"analyze", "-input", input, "-config", cfg, "-formats", "json"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "field(s) unresolved")
	assert.Contains(t, stderr.String(), "industry")
}

func TestRun_Schema(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteCSV(t, dir, "ratings.csv", testutil.RatingsHeader, testutil.RatingsRows[:1])

	var stdout, stderr bytes.Buffer
	code := run([]string{"schema", "-input", input, "-config", writeConfig(t, dir)}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "mapping:")
	assert.Contains(t, stdout.String(), "ISSUER_NAME")
}
