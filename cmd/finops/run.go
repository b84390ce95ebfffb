package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/collector"
	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/engine"
	"github.com/opscart/finops-engine/pkg/logging"
	"github.com/opscart/finops-engine/pkg/metrics"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/pricing"
	"github.com/opscart/finops-engine/pkg/storage"
)

// demoBudgets gives the demo account something for the budget tracker to watch
var demoBudgets = []config.BudgetConfig{
	{Name: "account", Amount: 48000},
	{Name: "engineering", Dimension: "Team", Value: "engineering", Amount: 20000},
}

// run is one analysis: the loaded configuration, its logger and what the engine produced
type run struct {
	cfg     *config.Config
	logger  zerolog.Logger
	account string
	result  *models.AnalysisResult
	metrics *metrics.Recorder
}

// loadConfig reads the config file and applies the command-line overrides on top
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyPreset(o.preset); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.horizon != 0 {
		cfg.Forecast.HorizonMonths = o.horizon
	}
	if o.sensitivity != 0 {
		cfg.Anomaly.Sensitivity = o.sensitivity
	}
	if o.metricsFile != "" {
		cfg.Metrics.TextfilePath = o.metricsFile
	}
	if o.archive {
		cfg.Archive.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) loadDataset(cfg *config.Config) (*collector.Dataset, error) {
	switch {
	case o.demo && o.input != "":
		return nil, fmt.Errorf("--demo and --input are mutually exclusive")
	case o.demo:
		if len(cfg.Governance.Budgets) == 0 {
			cfg.Governance.Budgets = append([]config.BudgetConfig(nil), demoBudgets...)
		}
		return collector.Demo(time.Now().UTC()), nil
	case o.input != "":
		return collector.LoadFile(o.input)
	default:
		return nil, fmt.Errorf("no dataset: pass --input <file> or --demo")
	}
}

// execute runs the full pipeline: load, enrich, analyze, then publish metrics and archive
func (o *options) execute(ctx context.Context, stderr io.Writer) (*run, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.Logging, stderr)

	ds, err := o.loadDataset(cfg)
	if err != nil {
		return nil, err
	}

	account := o.account
	if account == "" {
		account = ds.Account
	}
	if account == "" {
		account = "default"
	}

	if o.prometheus || cfg.Prometheus.URL != "" {
		o.enrich(ctx, cfg, ds, logger)
	}

	var table *pricing.Table
	if o.pricingPath != "" {
		table, err = pricing.Load(o.pricingPath)
		if err != nil {
			return nil, err
		}
	}

	rec := metrics.New()
	logger.Info().
		Str("account", account).
		Int("resources", len(ds.Resources)).
		Int("cost_records", len(ds.Costs)).
		Msg("Starting analysis")

	result, err := engine.New(cfg, table, logger, rec).Run(ctx, *ds)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.Metrics.TextfilePath).Msg("Wrote run metrics")
	}

	if cfg.Archive.Enabled {
		o.save(ctx, cfg, account, result, logger)
	}

	return &run{cfg: cfg, logger: logger, account: account, result: result, metrics: rec}, nil
}

// enrich pulls utilization from Prometheus. A failing Prometheus does not stop the
// run: the dataset's own samples are used instead.
func (o *options) enrich(ctx context.Context, cfg *config.Config, ds *collector.Dataset, logger zerolog.Logger) {
	enricher, err := collector.NewPrometheusEnricher(cfg.Prometheus, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Prometheus unavailable, using dataset samples only")
		return
	}
	n, err := enricher.Enrich(ctx, ds)
	if err != nil {
		logger.Warn().Err(err).Msg("Prometheus enrichment failed, using dataset samples only")
		return
	}
	logger.Info().Int("resources", n).Str("url", cfg.Prometheus.URL).Msg("Enriched utilization from Prometheus")
}

// save archives the run. Archive failures are logged, the report is still produced.
func (o *options) save(ctx context.Context, cfg *config.Config, account string, result *models.AnalysisResult, logger zerolog.Logger) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Archive unavailable, run not saved")
		return
	}
	defer store.Close()

	if err := store.SaveRun(ctx, account, result); err != nil {
		logger.Warn().Err(err).Msg("Failed to save run")
		return
	}
	logger.Info().Str("run_id", result.Metadata.RunID).Msg("Saved run to archive")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Archive.DSN == "" {
		return nil, errors.New("archive dsn is not configured (set archive.dsn or FINOPS_ARCHIVE_DSN)")
	}
	return storage.NewPostgresStore(ctx, storage.Config{DSN: cfg.Archive.DSN})
}
