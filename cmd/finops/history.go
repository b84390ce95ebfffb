package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/opscart/finops-engine/pkg/reporter"
	"github.com/opscart/finops-engine/pkg/storage"
)

func newHistoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [account]",
		Short: "Show archived runs",
		Long: `Show runs saved with --archive. Without an account, runs of every
account are listed. --trend prints the daily savings potential instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ""
			if len(args) == 1 {
				account = args[0]
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if opts.trendDays > 0 {
				points, err := store.SavingsTrend(cmd.Context(), account, opts.trendDays)
				if err != nil {
					return err
				}
				return printTrend(cmd.OutOrStdout(), points)
			}

			runs, err := store.ListRuns(cmd.Context(), account, opts.historyLimit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVarP(&opts.historyLimit, "limit", "l", 10, "Number of runs to show")
	cmd.Flags().IntVar(&opts.trendDays, "trend", 0, "Show the daily savings trend over this many days")

	cmd.AddCommand(newShowCmd(opts))
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Re-render the report of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportFormat, err := reporter.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return reporter.Render(cmd.OutOrStdout(), reporter.Build(result, ""), reportFormat)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text, json, csv, html")
	return cmd
}

func printRuns(w io.Writer, runs []*storage.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No archived runs found")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Account", "Analyzed", "Findings", "Recs", "Anomalies", "Waste/mo", "Savings/mo", "Tagged"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.RunID, r.Account, r.AnalyzedAt.Format("2006-01-02 15:04"),
			r.FindingCount, r.RecommendationCount, r.AnomalyCount,
			reporter.Money(r.MonthlyWaste), reporter.Money(r.MonthlySavings),
			fmt.Sprintf("%.1f%%", r.CompliancePct),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	tw.Render()
	return nil
}

func printTrend(w io.Writer, points []*storage.TrendPoint) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No archived runs in that window")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Day", "Runs", "Waste/mo", "Savings/mo"})
	for _, p := range points {
		tw.AppendRow(table.Row{p.Day.Format("2006-01-02"), p.Runs, reporter.Money(p.MonthlyWaste), reporter.Money(p.MonthlySavings)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
	return nil
}
