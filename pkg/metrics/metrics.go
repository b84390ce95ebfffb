// Package metrics records run statistics on a per-run Prometheus registry and
// renders them in the text exposition format for the node-exporter textfile
// collector.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/opscart/finops-engine/pkg/models"
)

const namespace = "finops"

// Recorder holds the run metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	findings        *prometheus.GaugeVec
	wasteByCategory *prometheus.GaugeVec
	recommendations *prometheus.GaugeVec
	savings         prometheus.Gauge
	anomalies       *prometheus.GaugeVec
	violations      prometheus.Gauge
	compliance      prometheus.Gauge
	budgetAlerts    *prometheus.GaugeVec
	warnings        *prometheus.CounterVec
	skipped         prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	lastRun         prometheus.Gauge
}

// New creates a recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		findings: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waste_findings",
			Help:      "Waste findings in the last run by category",
		}, []string{"category"}),
		wasteByCategory: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waste_monthly_dollars",
			Help:      "Monthly waste in the last run by category",
		}, []string{"category"}),
		recommendations: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recommendations",
			Help:      "Recommendations in the last run by action",
		}, []string{"action"}),
		savings: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "savings_potential_monthly_dollars",
			Help:      "Total monthly savings of all recommendations",
		}),
		anomalies: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies",
			Help:      "Spend anomalies in the last run by level",
		}, []string{"level"}),
		violations: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "policy_violations",
			Help:      "Policy violations in the last run",
		}),
		compliance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tag_compliance_percent",
			Help:      "Share of resources passing every policy rule",
		}),
		budgetAlerts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_alerts",
			Help:      "Budget alerts in the last run by level",
		}, []string{"level"}),
		warnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal problems raised during the run by kind",
		}, []string{"kind"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Input records skipped as malformed",
		}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each engine stage",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records how long an engine stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordResult sets the per-run gauges from a completed result
func (r *Recorder) RecordResult(res *models.AnalysisResult) {
	if r == nil || res == nil {
		return
	}

	r.findings.Reset()
	r.wasteByCategory.Reset()
	for _, f := range res.Findings {
		r.findings.WithLabelValues(string(f.Category)).Inc()
		r.wasteByCategory.WithLabelValues(string(f.Category)).Add(f.MonthlyWaste)
	}

	r.recommendations.Reset()
	for _, rec := range res.Recommendations {
		r.recommendations.WithLabelValues(string(rec.Action)).Inc()
	}
	r.savings.Set(res.TotalMonthlySavings)

	r.anomalies.Reset()
	for _, a := range res.Anomalies {
		r.anomalies.WithLabelValues(string(a.Level)).Inc()
	}

	r.violations.Set(float64(len(res.Violations)))
	r.compliance.Set(res.Compliance.Percentage)

	r.budgetAlerts.Reset()
	for _, a := range res.Alerts {
		r.budgetAlerts.WithLabelValues(string(a.Level)).Inc()
	}

	for _, w := range res.Warnings {
		r.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	r.skipped.Add(float64(len(res.Skipped)))
	r.lastRun.Set(float64(res.Metadata.AnalyzedAt.Unix()))
}

// WriteText renders every gathered family in the text exposition format
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile writes the metrics to path via a rename so the textfile
// collector never reads a partial file
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".finops-*.prom")
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := r.WriteText(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install metrics file: %w", err)
	}
	return nil
}
