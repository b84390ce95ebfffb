package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/opscart/finops-engine/pkg/models"
)

const rule = "======================================================================"

// GenerateText writes the plain-text report
func GenerateText(report *Report, w io.Writer) error {
	res := report.Result
	p := &printer{w: w}

	p.line(rule)
	p.line("CLOUD FINOPS ANALYSIS REPORT")
	p.line(rule)
	p.linef("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	p.linef("Account:   %s", report.Account)
	p.linef("As of:     %s", res.Metadata.AsOf.Format("2006-01-02"))
	p.linef("Run:       %s", res.Metadata.RunID)
	p.line(rule)

	if len(res.CostBreakdown) > 0 {
		p.section("COST VISIBILITY")
		p.linef("Monthly Spend (%s): %s", res.CostBreakdown[0].Period.Start.Format("2006-01"), Money(report.CurrentMonthlySpend))
		if t := res.SpendTrend; t != nil {
			p.linef("Spend Trend: %+.1f%%/month over %d months (R² %.2f)", t.RatePerMonth, t.Months, t.R2)
		}
		for _, b := range res.CostBreakdown {
			tw := newTable()
			tw.SetTitle("By " + b.Dimension)
			tw.AppendHeader(table.Row{b.Dimension, "Cost", "Share"})
			for _, item := range b.Items {
				tw.AppendRow(table.Row{item.Value, Money(item.Amount), fmt.Sprintf("%.1f%%", item.Percentage)})
			}
			tw.SetColumnConfigs(rightAlign(2, 3))
			p.table(tw)
		}
	}

	p.section("WASTE DETECTION")
	p.linef("Total Waste Found: %s/month", Money(report.TotalWaste))
	p.linef("Total Items: %d", len(res.Findings))
	if len(report.Categories) > 0 {
		tw := newTable()
		tw.AppendHeader(table.Row{"Category", "Items", "Monthly Waste"})
		for _, c := range report.Categories {
			tw.AppendRow(table.Row{c.Category, c.Count, Money(c.MonthlyWaste)})
		}
		tw.SetColumnConfigs(rightAlign(2, 3))
		p.table(tw)

		tw = newTable()
		tw.AppendHeader(table.Row{"Resource", "Category", "Waste", "Confidence", "Evidence"})
		for _, f := range res.Findings {
			tw.AppendRow(table.Row{f.ResourceID, f.Category, Money(f.MonthlyWaste),
				fmt.Sprintf("%.0f%%", f.Confidence*100), evidence(f.Evidence)})
		}
		tw.SetColumnConfigs(rightAlign(3, 4))
		p.table(tw)
	}

	p.section("OPTIMIZATION OPPORTUNITIES")
	p.linef("Total Potential: %s/month", Money(report.TotalSavings))
	if len(res.Recommendations) > 0 {
		tw := newTable()
		tw.AppendHeader(table.Row{"#", "Resource", "Action", "Change", "Savings/Month", "Risk", "ROI (months)"})
		for _, r := range res.Recommendations {
			tw.AppendRow(table.Row{r.Rank, r.ResourceID, r.Action, change(r), Money(r.MonthlySavings), r.Risk, roi(r)})
		}
		tw.SetColumnConfigs(rightAlign(1, 5, 7))
		p.table(tw)
	}

	if len(report.Scenarios) > 0 {
		p.section(fmt.Sprintf("%d-MONTH FORECAST", report.Scenarios[0].Months))
		tw := newTable()
		tw.AppendHeader(table.Row{"Scenario", "Month 3", "Month 6", "Month 12", "Year Total"})
		for _, s := range report.Scenarios {
			tw.AppendRow(table.Row{s.Scenario, checkpoint(s, 3, s.Month3), checkpoint(s, 6, s.Month6),
				checkpoint(s, 12, s.Month12), Money(s.YearTotal)})
		}
		tw.SetColumnConfigs(rightAlign(2, 3, 4, 5))
		p.table(tw)
	}

	if len(res.Anomalies) > 0 {
		p.section("SPEND ANOMALIES")
		tw := newTable()
		tw.AppendHeader(table.Row{"Period", "Scope", "Observed", "Expected", "Score", "Level"})
		for _, a := range res.Anomalies {
			tw.AppendRow(table.Row{a.Period.Start.Format("2006-01-02"), a.Scope, Money(a.Observed),
				Money(a.Expected), fmt.Sprintf("%.1fσ", a.Score), a.Level})
		}
		tw.SetColumnConfigs(rightAlign(3, 4, 5))
		p.table(tw)
	}

	p.section("GOVERNANCE & COMPLIANCE")
	p.linef("Tag Compliance: %.1f%% (%d of %d resources)", res.Compliance.Percentage, res.Compliance.Compliant, res.Compliance.Total)
	p.linef("Policy Violations: %d", len(res.Violations))
	if len(res.Alerts) > 0 {
		tw := newTable()
		tw.AppendHeader(table.Row{"Budget", "Scope", "Period", "Level", "Spend to Date", "Limit"})
		for _, a := range res.Alerts {
			tw.AppendRow(table.Row{a.Budget, a.Scope, a.Period, strings.ToUpper(string(a.Level)), Money(a.Observed), Money(a.Limit)})
		}
		tw.SetColumnConfigs(rightAlign(5, 6))
		p.table(tw)
	}

	if len(res.Warnings) > 0 {
		p.section("WARNINGS")
		for _, w := range res.Warnings {
			if w.ResourceID != "" {
				p.linef("  • [%s] %s: %s", w.Component, w.ResourceID, w.Message)
			} else {
				p.linef("  • [%s] %s", w.Component, w.Message)
			}
		}
	}

	p.line("")
	p.line(rule)
	p.line("ACTION PLAN (PRIORITY ORDER)")
	p.line(rule)
	for i, step := range report.ActionPlan {
		p.linef("%d. [%s] %s (%d)", i+1, step.Priority, step.Action, step.Count)
		p.linef("   Monthly Savings: %s", Money(step.MonthlySavings))
	}

	p.line("")
	p.line(rule)
	p.line("BOTTOM LINE")
	p.line(rule)
	p.linef("Current Monthly Spend:    %s", Money(report.CurrentMonthlySpend))
	p.linef("Identified Waste:         %s", Money(report.TotalWaste))
	p.linef("Monthly Savings Potential: %s", Money(report.TotalSavings))
	p.linef("Total Annual Impact:      %s", Money(report.AnnualSavings))
	p.linef("Optimized Monthly Spend:  %s", Money(report.OptimizedSpend))
	p.linef("Cost Reduction:           %.1f%%", report.ReductionPct)
	p.line(rule)

	return p.err
}

// printer remembers the first write error so the report reads top to bottom
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *printer) section(title string) {
	p.line("")
	p.line(title)
	p.line(strings.Repeat("-", len(rule)))
}

func (p *printer) table(tw table.Writer) {
	p.line(tw.Render())
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func rightAlign(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		configs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight}
	}
	return configs
}

func evidence(e models.Evidence) string {
	if e.Metric == "" {
		return e.Rule
	}
	return fmt.Sprintf("%s %.2f vs %.2f", e.Metric, e.Observed, e.Threshold)
}

func change(r models.Recommendation) string {
	if r.CurrentClass == "" && r.TargetClass == "" {
		return "-"
	}
	return r.CurrentClass + " → " + r.TargetClass
}

func roi(r models.Recommendation) string {
	if r.MigrationCost == 0 {
		return "immediate"
	}
	return fmt.Sprintf("%.1f", r.ROIMonths)
}

func checkpoint(s ScenarioSummary, month int, v float64) string {
	if s.Months < month {
		return "-"
	}
	return Money(v)
}
