package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// options holds every flag value, shared by the subcommands
type options struct {
	configPath string
	logLevel   string
	preset     string

	input       string
	demo        bool
	account     string
	format      string
	output      string
	chart       string
	horizon     int
	sensitivity float64
	metricsFile string
	archive     bool
	prometheus  bool
	pricingPath string

	historyLimit int
	trendDays    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "finops",
		Short: "Cloud cost analysis and forecasting",
		Long: `finops analyzes cloud resource inventories and billing history.

It detects waste, recommends right-sizing and commitments, forecasts spend
under optimization scenarios, flags spend anomalies and checks tagging and
budget policies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./finops.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.preset, "preset", "", "Threshold preset: dev, production, critical")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newWasteCmd(opts),
		newForecastCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// addInputFlags registers the flags every analysis command needs
func addInputFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Dataset file (JSON or YAML)")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Analyze the built-in demo account")
	cmd.Flags().StringVar(&opts.account, "account", "", "Account name for reports and the archive")
	cmd.Flags().StringVar(&opts.pricingPath, "pricing", "", "Pricing table file (default built-in prices)")
	cmd.Flags().BoolVar(&opts.prometheus, "prometheus", false, "Enrich CPU utilization from Prometheus")
	cmd.Flags().IntVar(&opts.horizon, "horizon", 0, "Forecast horizon in months (default from config)")
	cmd.Flags().Float64Var(&opts.sensitivity, "sensitivity", 0, "Anomaly sensitivity in standard deviations (default from config)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Save the run to the PostgreSQL archive")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "finops %s\n", version)
		},
	}
}
