// Package engine runs one analysis pass: normalize the collected dataset,
// then detect waste, recommend, forecast, score anomalies and evaluate
// governance, and assemble the result.
//
// A run is a pure function of its input. Only invalid configuration, a
// dataset with nothing in it, or cancellation abort it; everything else
// surfaces as a warning on the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/opscart/finops-engine/pkg/anomaly"
	"github.com/opscart/finops-engine/pkg/collector"
	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/forecast"
	"github.com/opscart/finops-engine/pkg/governance"
	"github.com/opscart/finops-engine/pkg/metrics"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/normalize"
	"github.com/opscart/finops-engine/pkg/pricing"
	"github.com/opscart/finops-engine/pkg/recommender"
	"github.com/opscart/finops-engine/pkg/visibility"
	"github.com/opscart/finops-engine/pkg/waste"
)

// ErrNoInput is returned when the dataset holds no usable resource or cost record
var ErrNoInput = errors.New("no input: dataset has no usable resources or cost records")

// Engine wires the analysis components together
type Engine struct {
	cfg     *config.Config
	table   *pricing.Table
	base    zerolog.Logger
	logger  zerolog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// New creates an engine. A nil table uses the built-in prices; a nil recorder records nothing.
func New(cfg *config.Config, table *pricing.Table, logger zerolog.Logger, rec *metrics.Recorder) *Engine {
	if table == nil {
		table = pricing.DefaultTable()
	}
	return &Engine{
		cfg:     cfg,
		table:   table,
		base:    logger,
		logger:  logger.With().Str("component", "engine").Logger(),
		metrics: rec,
		now:     time.Now,
	}
}

// chainOutput is what the waste, recommend and forecast goroutine hands back
type chainOutput struct {
	findings        []models.WasteFinding
	recommendations []models.Recommendation
	savings         float64
	forecasts       map[models.ScenarioID][]models.ForecastPoint
	warnings        []models.Warning
}

// Run analyzes one dataset
func (e *Engine) Run(ctx context.Context, ds collector.Dataset) (*models.AnalysisResult, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("%w: missing configuration", config.ErrInvalidConfig)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := e.now()
	asOf := ds.AsOf
	if asOf.IsZero() {
		asOf = started
	}
	asOf = asOf.UTC()

	stage := time.Now()
	resources, skippedResources := normalize.Resources(ds.Resources)
	costs, skippedCosts := normalize.Costs(ds.Costs)
	e.observe("normalize", stage)

	skipped := append(skippedResources, skippedCosts...)
	if len(resources) == 0 && len(costs) == 0 {
		return nil, ErrNoInput
	}

	var (
		chain      chainOutput
		anomalies  []models.AnomalySignal
		anomalyWs  []models.Warning
		violations []models.PolicyViolation
		alerts     []models.BudgetAlert
		compliance models.ComplianceSummary
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := e.chain(gctx, resources, costs, asOf)
		if err != nil {
			return err
		}
		chain = out
		return nil
	})

	g.Go(func() error {
		stage := time.Now()
		anomalies, anomalyWs = anomaly.New(e.cfg.Anomaly, e.base).Detect(costs, e.cfg.Anomaly.Sensitivity)
		e.observe("anomaly", stage)
		return gctx.Err()
	})

	g.Go(func() error {
		stage := time.Now()
		ev := governance.New(e.cfg.Governance, e.base)
		violations, alerts = ev.Evaluate(resources, costs)
		compliance = ev.Compliance(resources)
		e.observe("governance", stage)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	warnings := skippedWarnings(skipped)
	warnings = append(warnings, chain.warnings...)
	warnings = append(warnings, anomalyWs...)

	result := &models.AnalysisResult{
		Metadata: models.RunMetadata{
			RunID:           uuid.New().String(),
			AnalyzedAt:      started.UTC(),
			AsOf:            asOf,
			ResourceCount:   len(resources),
			CostRecordCount: len(costs),
		},
		Findings:            nonNil(chain.findings),
		Recommendations:     nonNil(chain.recommendations),
		TotalMonthlySavings: chain.savings,
		Forecasts:           chain.forecasts,
		Anomalies:           nonNil(anomalies),
		Violations:          nonNil(violations),
		Compliance:          compliance,
		Alerts:              nonNil(alerts),
		CostBreakdown:       visibility.Breakdown(costs),
		SpendTrend:          visibility.Trend(costs),
		Skipped:             skipped,
		Warnings:            nonNil(warnings),
	}
	if len(costs) > 0 {
		result.Metadata.PeriodStart = costs[0].Period.Start
		result.Metadata.PeriodEnd = costs[len(costs)-1].Period.End
	}
	result.Metadata.Duration = e.now().Sub(started).Round(time.Millisecond).String()

	e.metrics.RecordResult(result)

	e.logger.Info().
		Str("run_id", result.Metadata.RunID).
		Int("resources", len(resources)).
		Int("cost_records", len(costs)).
		Int("findings", len(result.Findings)).
		Int("recommendations", len(result.Recommendations)).
		Float64("monthly_savings", result.TotalMonthlySavings).
		Int("anomalies", len(result.Anomalies)).
		Int("warnings", len(result.Warnings)).
		Msg("analysis complete")

	return result, nil
}

// chain runs waste detection, then recommendations, then the forecast the
// recommendations feed. The context is checked between stages.
func (e *Engine) chain(ctx context.Context, resources []models.ResourceRecord, costs []models.CostRecord, asOf time.Time) (chainOutput, error) {
	var out chainOutput

	stage := time.Now()
	findings, warnings := waste.NewDetector(e.cfg.Thresholds, asOf, e.base).Detect(resources)
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].ResourceID != findings[j].ResourceID {
			return findings[i].ResourceID < findings[j].ResourceID
		}
		return findings[i].Category < findings[j].Category
	})
	out.findings = findings
	out.warnings = append(out.warnings, warnings...)
	e.observe("waste", stage)
	if err := ctx.Err(); err != nil {
		return out, err
	}

	stage = time.Now()
	rec := recommender.New(e.cfg.Recommend, e.cfg.Thresholds, asOf,
		recommender.WithSpendHistory(costs), recommender.WithLogger(e.base))
	out.recommendations = rec.Recommend(findings, resources, e.table)
	out.savings = recommender.Total(out.recommendations)
	e.observe("recommend", stage)
	if err := ctx.Err(); err != nil {
		return out, err
	}

	stage = time.Now()
	forecasts, warning := e.forecast(costs, out.savings)
	out.forecasts = forecasts
	out.warnings = append(out.warnings, warning...)
	e.observe("forecast", stage)
	return out, ctx.Err()
}

// forecast projects total spend. A history gap is retried on the contiguous
// tail; any remaining failure becomes a warning and no forecast.
func (e *Engine) forecast(costs []models.CostRecord, potential float64) (map[models.ScenarioID][]models.ForecastPoint, []models.Warning) {
	f := forecast.New(e.cfg.Forecast, e.base)
	horizon := e.cfg.Forecast.HorizonMonths

	var warnings []models.Warning
	out, err := f.Forecast(costs, horizon, nil, potential)

	var gapErr *forecast.GapError
	if errors.As(err, &gapErr) {
		warnings = append(warnings, models.Warning{
			Kind:      models.WarningLargeHistoryGap,
			Component: "forecast",
			Message:   gapErr.Error() + "; forecasting from the history after the gap",
		})
		out, err = f.Forecast(forecast.TrailingSegment(costs, e.cfg.Forecast.MaxGapPeriods), horizon, nil, potential)
	}

	switch {
	case err == nil:
		return out, warnings
	case errors.Is(err, forecast.ErrInsufficientHistory):
		warnings = append(warnings, models.Warning{
			Kind:      models.WarningInsufficientHistory,
			Component: "forecast",
			Message:   err.Error(),
		})
	default:
		e.logger.Warn().Err(err).Msg("forecast failed")
		warnings = append(warnings, models.Warning{
			Kind:      models.WarningRuleFailure,
			Component: "forecast",
			Message:   err.Error(),
		})
	}
	return nil, warnings
}

func (e *Engine) observe(stage string, since time.Time) {
	d := time.Since(since)
	e.metrics.ObserveStage(stage, d)
	e.logger.Debug().Str("stage", stage).Dur("duration", d).Msg("stage complete")
}

func skippedWarnings(skipped []models.SkippedRecord) []models.Warning {
	out := make([]models.Warning, 0, len(skipped))
	for _, s := range skipped {
		kind := models.WarningMalformedResource
		if s.Source == "cost" {
			kind = models.WarningMalformedCost
		}
		out = append(out, models.Warning{
			Kind:       kind,
			Component:  "normalize",
			ResourceID: s.ID,
			Message:    s.Reason,
		})
	}
	return out
}

// nonNil keeps empty lists as [] rather than null in JSON output
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
