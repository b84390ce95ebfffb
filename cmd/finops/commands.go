package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/reporter"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis and print a report",
		Example: `  finops analyze --demo
  finops analyze -i account.yaml --format html -o report.html --chart forecast.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := reporter.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			r, err := opts.execute(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if opts.chart != "" {
				if err := reporter.WriteForecastChartFile(r.result, opts.chart); err != nil {
					if !errors.Is(err, reporter.ErrNoForecast) {
						return err
					}
					r.logger.Warn().Msg("No forecast available, chart skipped")
				}
			}

			return writeOutput(cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
				return reporter.Render(w, reporter.Build(r.result, r.account), format)
			})
		},
	}
	addInputFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Report format: text, json, csv, html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "Write the forecast chart as PNG to this file")
	return cmd
}

func newWasteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waste",
		Short: "List waste findings only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.execute(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printWaste(cmd.OutOrStdout(), r.result)
		},
	}
	addInputFlags(cmd, opts)
	return cmd
}

func newForecastCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the spend forecast for every scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.execute(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if opts.chart != "" {
				if err := reporter.WriteForecastChartFile(r.result, opts.chart); err != nil {
					return err
				}
			}
			return printForecast(cmd.OutOrStdout(), r.result)
		},
	}
	addInputFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.chart, "chart", "", "Write the forecast chart as PNG to this file")
	return cmd
}

// writeOutput sends render's output to path, or to stdout when path is empty
func writeOutput(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Report written to %s\n", path)
	return nil
}

func printWaste(w io.Writer, result *models.AnalysisResult) error {
	if len(result.Findings) == 0 {
		_, err := fmt.Fprintln(w, "No waste found")
		return err
	}

	findings := append([]models.WasteFinding(nil), result.Findings...)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].MonthlyWaste > findings[j].MonthlyWaste
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Resource", "Type", "Category", "Monthly Waste", "Confidence", "Detail"})
	for _, f := range findings {
		tw.AppendRow(table.Row{
			f.ResourceID, f.ResourceType, f.Category,
			reporter.Money(f.MonthlyWaste),
			fmt.Sprintf("%.0f%%", f.Confidence*100),
			f.Detail,
		})
	}
	tw.AppendFooter(table.Row{"", "", "Total", reporter.Money(result.TotalMonthlyWaste()), "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()
	return nil
}

func printForecast(w io.Writer, result *models.AnalysisResult) error {
	baseline := result.Forecasts[models.ScenarioBaseline]
	if len(baseline) == 0 {
		_, err := fmt.Fprintln(w, "No forecast available")
		for _, warn := range result.Warnings {
			if warn.Component == "forecast" {
				fmt.Fprintf(w, "  %s: %s\n", warn.Kind, warn.Message)
			}
		}
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	header := table.Row{"Month", "Baseline", "Low", "High"}
	for _, s := range models.Scenarios[1:] {
		header = append(header, s)
	}
	tw.AppendHeader(header)

	for i, p := range baseline {
		row := table.Row{p.Period, reporter.Money(p.Point), reporter.Money(p.Lower), reporter.Money(p.Upper)}
		for _, s := range models.Scenarios[1:] {
			points := result.Forecasts[s]
			if i < len(points) {
				row = append(row, reporter.Money(points[i].Point))
			} else {
				row = append(row, "")
			}
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	tw.Render()

	_, err := fmt.Fprintf(w, "Confidence level: %.0f%%\n", baseline[0].ConfidenceLevel*100)
	return err
}
