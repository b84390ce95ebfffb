package models

import "time"

// WarningKind classifies a non-fatal problem raised during a run
type WarningKind string

const (
	WarningMalformedResource   WarningKind = "malformed-resource"
	WarningMalformedCost       WarningKind = "malformed-cost"
	WarningRuleFailure         WarningKind = "rule-failure"
	WarningInsufficientHistory WarningKind = "insufficient-history"
	WarningLargeHistoryGap     WarningKind = "large-history-gap"
)

// Warning is a non-fatal problem that did not stop the run
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Component  string      `json:"component"`
	ResourceID string      `json:"resource_id,omitempty"`
	Message    string      `json:"message"`
}

// RunMetadata identifies a run and the input it covered
type RunMetadata struct {
	RunID           string    `json:"run_id"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	AsOf            time.Time `json:"as_of"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	ResourceCount   int       `json:"resource_count"`
	CostRecordCount int       `json:"cost_record_count"`
	Duration        string    `json:"duration"`
}

// SpendTrend is the linear trend of monthly spend over the history
type SpendTrend struct {
	Months       int     `json:"months"`
	RatePerMonth float64 `json:"rate_per_month_pct"`
	Slope        float64 `json:"slope"`
	R2           float64 `json:"r2"`
	Growing      bool    `json:"growing"`
}

// AnalysisResult is everything one engine run produced
type AnalysisResult struct {
	Metadata            RunMetadata                    `json:"metadata"`
	Findings            []WasteFinding                 `json:"findings"`
	Recommendations     []Recommendation               `json:"recommendations"`
	TotalMonthlySavings float64                        `json:"total_monthly_savings"`
	Forecasts           map[ScenarioID][]ForecastPoint `json:"forecasts,omitempty"`
	Anomalies           []AnomalySignal                `json:"anomalies"`
	Violations          []PolicyViolation              `json:"violations"`
	Compliance          ComplianceSummary              `json:"compliance"`
	Alerts              []BudgetAlert                  `json:"alerts"`
	CostBreakdown       []CostBreakdown                `json:"cost_breakdown,omitempty"`
	SpendTrend          *SpendTrend                    `json:"spend_trend,omitempty"`
	Skipped             []SkippedRecord                `json:"skipped,omitempty"`
	Warnings            []Warning                      `json:"warnings"`
}

// TotalMonthlyWaste sums the waste across all findings
func (r *AnalysisResult) TotalMonthlyWaste() float64 {
	total := 0.0
	for _, f := range r.Findings {
		total += f.MonthlyWaste
	}
	return total
}
