package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opscart/finops-engine/pkg/models"
)

type jsonSummary struct {
	CurrentMonthlySpend float64 `json:"current_monthly_spend"`
	TotalMonthlyWaste   float64 `json:"total_monthly_waste"`
	TotalMonthlySavings float64 `json:"total_monthly_savings"`
	AnnualSavings       float64 `json:"annual_savings"`
	OptimizedSpend      float64 `json:"optimized_monthly_spend"`
	ReductionPct        float64 `json:"reduction_pct"`
}

type jsonReport struct {
	Account string                 `json:"account"`
	Summary jsonSummary            `json:"summary"`
	Result  *models.AnalysisResult `json:"result"`
}

// GenerateJSON writes the full result with the report summary
func GenerateJSON(report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(jsonReport{
		Account: report.Account,
		Summary: jsonSummary{
			CurrentMonthlySpend: report.CurrentMonthlySpend,
			TotalMonthlyWaste:   report.TotalWaste,
			TotalMonthlySavings: report.TotalSavings,
			AnnualSavings:       report.AnnualSavings,
			OptimizedSpend:      report.OptimizedSpend,
			ReductionPct:        report.ReductionPct,
		},
		Result: report.Result,
	})
	if err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
