package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("FINOPS_ARCHIVE_DSN", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "finops dev\n", out)
}

func TestAnalyzeDemoJSON(t *testing.T) {
	out, _, err := execute(t, "analyze", "--demo", "--format", "json", "--log-level", "error")
	require.NoError(t, err)

	var report struct {
		Account string `json:"account"`
		Summary struct {
			TotalMonthlySavings float64 `json:"total_monthly_savings"`
		} `json:"summary"`
		Result struct {
			Findings        []json.RawMessage          `json:"findings"`
			Recommendations []json.RawMessage          `json:"recommendations"`
			Forecasts       map[string]json.RawMessage `json:"forecasts"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "demo", report.Account)
	assert.NotEmpty(t, report.Result.Findings)
	assert.NotEmpty(t, report.Result.Recommendations)
	assert.Greater(t, report.Summary.TotalMonthlySavings, 0.0)
	assert.Len(t, report.Result.Forecasts, 3)
}

func TestAnalyzeAccountOverride(t *testing.T) {
	out, _, err := execute(t, "analyze", "--demo", "--format", "json", "--account", "acme-prod", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, `"account": "acme-prod"`)
}

func TestAnalyzeWritesFiles(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.html")
	chart := filepath.Join(dir, "forecast.png")
	metricsFile := filepath.Join(dir, "finops.prom")

	out, _, err := execute(t, "analyze", "--demo",
		"--format", "html", "--output", report,
		"--chart", chart, "--metrics-file", metricsFile,
		"--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+report)

	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<html")

	png, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "finops_waste_findings")
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"analyze"}, "--input"},
		{"both inputs", []string{"analyze", "--demo", "--input", "x.json"}, "mutually exclusive"},
		{"bad format", []string{"analyze", "--demo", "--format", "pdf"}, "pdf"},
		{"bad preset", []string{"analyze", "--demo", "--preset", "yolo"}, "yolo"},
		{"missing file", []string{"analyze", "--input", "missing.json"}, "open dataset"},
		{"bad horizon", []string{"analyze", "--demo", "--horizon=-2"}, "horizon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWasteCommand(t *testing.T) {
	out, _, err := execute(t, "waste", "--demo", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "i-demo001")
	assert.Contains(t, out, "TOTAL")
}

func TestForecastCommand(t *testing.T) {
	out, _, err := execute(t, "forecast", "--demo", "--horizon", "6", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "CONSERVATIVE")
	assert.Contains(t, out, "Confidence level: 80%")
}

func TestHistoryRequiresDSN(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup (t.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
