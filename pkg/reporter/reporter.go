package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opscart/finops-engine/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatText ReportFormat = "text"
	FormatJSON ReportFormat = "json"
	FormatCSV  ReportFormat = "csv"
	FormatHTML ReportFormat = "html"
)

// ParseFormat validates a format name
func ParseFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json, csv or html)", s)
	}
}

// Report is an analysis result plus the summary figures every format shows
type Report struct {
	Account     string
	GeneratedAt time.Time
	Result      *models.AnalysisResult

	CurrentMonthlySpend float64
	TotalWaste          float64
	TotalSavings        float64
	AnnualSavings       float64
	OptimizedSpend      float64
	ReductionPct        float64

	Categories []*CategoryStats
	ActionPlan []*ActionStep
	Scenarios  []ScenarioSummary
}

// CategoryStats aggregates findings of one waste category
type CategoryStats struct {
	Category     models.WasteCategory
	Count        int
	MonthlyWaste float64
}

// ActionStep is one line of the action plan: every recommendation of one action type
type ActionStep struct {
	Priority       string
	Action         models.ActionType
	Count          int
	MonthlySavings float64
}

// ScenarioSummary condenses a forecast scenario to a few checkpoints
type ScenarioSummary struct {
	Scenario  models.ScenarioID
	Month3    float64
	Month6    float64
	Month12   float64
	YearTotal float64
	Months    int
}

var actionPriority = map[models.ActionType]string{
	models.ActionTerminate:           "HIGH",
	models.ActionRightSize:           "HIGH",
	models.ActionDelete:              "MEDIUM",
	models.ActionPurchaseCommitment:  "MEDIUM",
	models.ActionMigrateStorageClass: "LOW",
	models.ActionMigrateArchitecture: "LOW",
}

// Build computes the report summary for a result
func Build(result *models.AnalysisResult, account string) *Report {
	report := &Report{
		Account:      account,
		GeneratedAt:  result.Metadata.AnalyzedAt,
		Result:       result,
		TotalWaste:   result.TotalMonthlyWaste(),
		TotalSavings: result.TotalMonthlySavings,
	}
	if report.Account == "" {
		report.Account = "unknown"
	}

	if len(result.CostBreakdown) > 0 {
		report.CurrentMonthlySpend = result.CostBreakdown[0].Total
	}
	report.AnnualSavings = report.TotalSavings * 12
	report.OptimizedSpend = report.CurrentMonthlySpend - report.TotalSavings
	if report.OptimizedSpend < 0 {
		report.OptimizedSpend = 0
	}
	if report.CurrentMonthlySpend > 0 {
		report.ReductionPct = report.TotalSavings / report.CurrentMonthlySpend * 100
	}

	calculateStats(report)
	return report
}

// calculateStats fills the per-category, per-action and per-scenario summaries
func calculateStats(report *Report) {
	categories := make(map[models.WasteCategory]*CategoryStats)
	for _, f := range report.Result.Findings {
		stat, ok := categories[f.Category]
		if !ok {
			stat = &CategoryStats{Category: f.Category}
			categories[f.Category] = stat
			report.Categories = append(report.Categories, stat)
		}
		stat.Count++
		stat.MonthlyWaste += f.MonthlyWaste
	}
	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].MonthlyWaste > report.Categories[j].MonthlyWaste
	})

	steps := make(map[models.ActionType]*ActionStep)
	for _, rec := range report.Result.Recommendations {
		step, ok := steps[rec.Action]
		if !ok {
			step = &ActionStep{Action: rec.Action, Priority: actionPriority[rec.Action]}
			steps[rec.Action] = step
			report.ActionPlan = append(report.ActionPlan, step)
		}
		step.Count++
		step.MonthlySavings += rec.MonthlySavings
	}
	sort.SliceStable(report.ActionPlan, func(i, j int) bool {
		return report.ActionPlan[i].MonthlySavings > report.ActionPlan[j].MonthlySavings
	})

	for _, id := range models.Scenarios {
		points, ok := report.Result.Forecasts[id]
		if !ok || len(points) == 0 {
			continue
		}
		s := ScenarioSummary{Scenario: id, Months: len(points)}
		for i, p := range points {
			switch i + 1 {
			case 3:
				s.Month3 = p.Point
			case 6:
				s.Month6 = p.Point
			case 12:
				s.Month12 = p.Point
			}
			if i < 12 {
				s.YearTotal += p.Point
			}
		}
		report.Scenarios = append(report.Scenarios, s)
	}
}

// Render writes the report in the given format
func Render(w io.Writer, report *Report, format ReportFormat) error {
	switch format {
	case FormatText:
		return GenerateText(report, w)
	case FormatJSON:
		return GenerateJSON(report, w)
	case FormatCSV:
		return GenerateCSV(report, w)
	case FormatHTML:
		return GenerateHTML(report, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Money formats a dollar amount with two decimals and thousands separators
func Money(v float64) string {
	s := decimal.NewFromFloat(v).Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
