package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// GenerateCSV creates a CSV report: one row per recommendation, then the
// findings and a summary block
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Rank",
		"Resource",
		"Action",
		"Current Class",
		"Target Class",
		"Monthly Savings ($)",
		"Migration Cost ($)",
		"ROI (months)",
		"Risk",
		"Findings",
		"Reason",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range report.Result.Recommendations {
		row := []string{
			fmt.Sprintf("%d", rec.Rank),
			rec.ResourceID,
			string(rec.Action),
			rec.CurrentClass,
			rec.TargetClass,
			fmt.Sprintf("%.2f", rec.MonthlySavings),
			fmt.Sprintf("%.2f", rec.MigrationCost),
			fmt.Sprintf("%.1f", rec.ROIMonths),
			string(rec.Risk),
			strings.Join(rec.FindingKeys, ";"),
			rec.Reason,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	rows := [][]string{
		{},
		{"FINDINGS"},
		{"Key", "Resource", "Category", "Monthly Waste ($)", "Confidence", "Detail"},
	}
	for _, f := range report.Result.Findings {
		rows = append(rows, []string{
			f.Key,
			f.ResourceID,
			string(f.Category),
			fmt.Sprintf("%.2f", f.MonthlyWaste),
			fmt.Sprintf("%.2f", f.Confidence),
			f.Detail,
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"SUMMARY"},
		[]string{"Findings", fmt.Sprintf("%d", len(report.Result.Findings))},
		[]string{"Recommendations", fmt.Sprintf("%d", len(report.Result.Recommendations))},
		[]string{"Total Monthly Waste", fmt.Sprintf("%.2f", report.TotalWaste)},
		[]string{"Total Monthly Savings", fmt.Sprintf("%.2f", report.TotalSavings)},
		[]string{"Annual Savings", fmt.Sprintf("%.2f", report.AnnualSavings)},
		[]string{"Tag Compliance (%)", fmt.Sprintf("%.1f", report.Result.Compliance.Percentage)},
	)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}
	return nil
}
