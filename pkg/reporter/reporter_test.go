package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/models"
)

func sampleResult() *models.AnalysisResult {
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	forecasts := make(map[models.ScenarioID][]models.ForecastPoint)
	for _, id := range models.Scenarios {
		cut := map[models.ScenarioID]float64{models.ScenarioBaseline: 0, models.ScenarioConservative: 500, models.ScenarioAggressive: 1000}[id]
		for i := 0; i < 12; i++ {
			start := jun.AddDate(0, i, 0)
			point := 45000 + 100*float64(i) - cut
			forecasts[id] = append(forecasts[id], models.ForecastPoint{
				Period: start.Format("2006-01"), PeriodStart: start, Scenario: id,
				Point: point, Lower: point - 1000, Upper: point + 1000, ConfidenceLevel: 0.8,
			})
		}
	}

	return &models.AnalysisResult{
		Metadata: models.RunMetadata{
			RunID:      "run-1",
			AnalyzedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			AsOf:       time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		Findings: []models.WasteFinding{
			{Key: "k1", ResourceID: "i-1", Category: models.CategoryIdleCompute, MonthlyWaste: 70.08, Confidence: 1,
				Evidence: models.Evidence{Rule: "idle-compute", Metric: "CPUUtilization", Threshold: 5, Observed: 1.1}},
			{Key: "k2", ResourceID: "vol-1", Category: models.CategoryUnattachedVolume, MonthlyWaste: 10, Confidence: 1},
			{Key: "k3", ResourceID: "vol-2", Category: models.CategoryUnattachedVolume, MonthlyWaste: 5, Confidence: 0.9},
		},
		Recommendations: []models.Recommendation{
			{Rank: 1, ResourceID: "i-1", Action: models.ActionTerminate, FindingKeys: []string{"k1"}, MonthlySavings: 70.08, Risk: models.RiskMedium, Reason: "idle, with \"quotes\""},
			{Rank: 2, ResourceID: "i-2", Action: models.ActionRightSize, CurrentClass: "m5.xlarge", TargetClass: "m5.large", MonthlySavings: 70.08, MigrationCost: 25, ROIMonths: 0.4, Risk: models.RiskMedium},
			{Rank: 3, ResourceID: "vol-1", Action: models.ActionDelete, FindingKeys: []string{"k2"}, MonthlySavings: 10, Risk: models.RiskLow},
		},
		TotalMonthlySavings: 150.16,
		Forecasts:           forecasts,
		Anomalies: []models.AnomalySignal{
			{Period: models.Period{Start: jun.AddDate(0, -1, 0)}, Scope: "Service=Data Transfer", Observed: 17000, Expected: 5300, Score: 90, Level: models.SeverityCritical},
		},
		Compliance: models.ComplianceSummary{Total: 4, Compliant: 1, Percentage: 25},
		Alerts: []models.BudgetAlert{
			{Budget: "account", Scope: "total", Level: models.BudgetBreach, Period: "2025-05", Observed: 62000, Limit: 48000},
		},
		CostBreakdown: []models.CostBreakdown{
			{Dimension: "Service", Total: 50000, Items: []models.BreakdownItem{{Value: "EC2", Amount: 30000, Percentage: 60}, {Value: "RDS", Amount: 20000, Percentage: 40}}},
		},
		SpendTrend: &models.SpendTrend{Months: 12, RatePerMonth: 2.5, Slope: 1100, R2: 0.91},
		Warnings:   []models.Warning{{Kind: models.WarningRuleFailure, Component: "waste", ResourceID: "i-9", Message: "malformed sample"}},
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleResult(), "demo")

	assert.Equal(t, "demo", r.Account)
	assert.InDelta(t, 85.08, r.TotalWaste, 1e-9)
	assert.InDelta(t, 150.16*12, r.AnnualSavings, 1e-9)
	assert.Equal(t, 50000.0, r.CurrentMonthlySpend)
	assert.InDelta(t, 50000-150.16, r.OptimizedSpend, 1e-9)
	assert.InDelta(t, 0.30032, r.ReductionPct, 1e-9)

	require.Len(t, r.Categories, 2)
	assert.Equal(t, models.CategoryIdleCompute, r.Categories[0].Category)
	assert.Equal(t, 2, r.Categories[1].Count)

	require.Len(t, r.ActionPlan, 3)
	assert.Equal(t, models.ActionTerminate, r.ActionPlan[0].Action)
	assert.Equal(t, "HIGH", r.ActionPlan[0].Priority)
	assert.Equal(t, models.ActionDelete, r.ActionPlan[2].Action)

	require.Len(t, r.Scenarios, 3)
	base := r.Scenarios[0]
	assert.Equal(t, models.ScenarioBaseline, base.Scenario)
	assert.Equal(t, 45200.0, base.Month3)
	assert.Equal(t, 46100.0, base.Month12)
	assert.Equal(t, 12*45000.0+100*66, base.YearTotal)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(&models.AnalysisResult{}, "")
	assert.Equal(t, "unknown", r.Account)
	assert.Zero(t, r.ReductionPct)
	assert.Empty(t, r.Scenarios)

	var buf bytes.Buffer
	require.NoError(t, GenerateText(r, &buf))
	assert.Contains(t, buf.String(), "BOTTOM LINE")
}

func TestGenerateText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(sampleResult(), "demo"), FormatText))

	out := buf.String()
	for _, want := range []string{
		"CLOUD FINOPS ANALYSIS REPORT",
		"COST VISIBILITY",
		"$30,000.00",
		"Spend Trend: +2.5%/month over 12 months (R² 0.91)",
		"WASTE DETECTION",
		"m5.xlarge → m5.large",
		"12-MONTH FORECAST",
		"Service=Data Transfer",
		"Tag Compliance: 25.0%",
		"1. [HIGH] terminate (1)",
		"Total Annual Impact:      $1,801.92",
		"[waste] i-9: malformed sample",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "ACTION PLAN"), strings.Index(out, "BOTTOM LINE"))
}

func TestGenerateCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(sampleResult(), "demo"), FormatCSV))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "Rank", records[0][0])
	assert.Equal(t, []string{"1", "i-1", "terminate"}, records[1][:3])
	assert.Equal(t, "idle, with \"quotes\"", records[1][10])
	assert.Equal(t, "m5.large", records[2][4])

	var summary bool
	for _, rec := range records {
		if rec[0] == "Annual Savings" {
			summary = true
			assert.Equal(t, "1801.92", rec[1])
		}
	}
	assert.True(t, summary)
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(sampleResult(), "demo"), FormatJSON))

	var decoded struct {
		Account string `json:"account"`
		Summary struct {
			AnnualSavings float64 `json:"annual_savings"`
		} `json:"summary"`
		Result models.AnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded.Account)
	assert.InDelta(t, 1801.92, decoded.Summary.AnnualSavings, 1e-9)
	assert.Len(t, decoded.Result.Forecasts[models.ScenarioAggressive], 12)
}

func TestGenerateHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(sampleResult(), "demo"), FormatHTML))

	out := buf.String()
	assert.Contains(t, out, "<title>FinOps Report - demo</title>")
	assert.Contains(t, out, "risk-medium")
	assert.Contains(t, out, "level-critical")
	assert.Contains(t, out, "$150.16")
	assert.Contains(t, out, "idle, with &#34;quotes&#34;")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("markdown")
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		3.65:       "$3.65",
		1234.5:     "$1,234.50",
		45244.499:  "$45,244.50",
		1000000:    "$1,000,000.00",
		-13450.125: "-$13,450.13",
	}
	for in, want := range tests {
		assert.Equal(t, want, Money(in), "Money(%v)", in)
	}
}

func TestForecastChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecastChart(sampleResult(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	path := filepath.Join(t.TempDir(), "charts", "forecast.png")
	require.NoError(t, WriteForecastChartFile(sampleResult(), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.ErrorIs(t, WriteForecastChart(&models.AnalysisResult{}, &buf), ErrNoForecast)
}
