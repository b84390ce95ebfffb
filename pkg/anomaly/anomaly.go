// Package anomaly flags billing periods whose spend departs from the
// trailing baseline of the same scope.
//
// Every scope ("total" and each Dimension=Value pair) keeps its own rolling
// window. A period is scored as z = |observed - mean| / stddev over the
// window that precedes it, so the evaluated period never shifts its own
// baseline.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/normalize"
)

// Detector scores a cost series against rolling per-scope baselines
type Detector struct {
	cfg    config.AnomalyConfig
	logger zerolog.Logger
}

// New creates a detector
func New(cfg config.AnomalyConfig, logger zerolog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With().Str("component", "anomaly").Logger(),
	}
}

type scopeKey struct {
	dimension, value string
}

// Detect scores every period of history. Sensitivity <= 0 uses the configured default.
func (d *Detector) Detect(history []models.CostRecord, sensitivity float64) ([]models.AnomalySignal, []models.Warning) {
	if sensitivity <= 0 {
		sensitivity = d.cfg.Sensitivity
	}
	if len(history) == 0 {
		return nil, nil
	}

	scopes := scopesOf(history)
	windows := make(map[scopeKey][]float64, len(scopes))
	granularity := normalize.DetectGranularity(history)

	var (
		signals  []models.AnomalySignal
		warnings []models.Warning
	)

	for i, rec := range history {
		if i > 0 {
			prev := history[i-1].Period.Start
			if missing := normalize.MissingBetween(prev, rec.Period.Start, granularity); missing > d.cfg.MaxGapPeriods {
				warnings = append(warnings, models.Warning{
					Kind:      models.WarningLargeHistoryGap,
					Component: "anomaly",
					Message: fmt.Sprintf("%d %s periods missing before %s; baselines restarted",
						missing, granularity, rec.Period.Start.Format("2006-01-02")),
				})
				windows = make(map[scopeKey][]float64, len(scopes))
			}
		}

		for _, sc := range scopes {
			observed, ok := rec.Amount(sc.dimension, sc.value)
			if !ok {
				continue
			}

			window := windows[sc]
			if len(window) >= d.cfg.MinWindow {
				if sig, flagged := d.score(rec.Period, models.ScopeOf(sc.dimension, sc.value), observed, window, sensitivity); flagged {
					signals = append(signals, sig)
				}
			}

			window = append(window, observed)
			if len(window) > d.cfg.Window {
				window = window[len(window)-d.cfg.Window:]
			}
			windows[sc] = window
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if !signals[i].Period.Start.Equal(signals[j].Period.Start) {
			return signals[i].Period.Start.Before(signals[j].Period.Start)
		}
		return signals[i].Scope < signals[j].Scope
	})

	d.logger.Debug().Int("periods", len(history)).Int("scopes", len(scopes)).
		Int("anomalies", len(signals)).Float64("sensitivity", sensitivity).Msg("anomaly scan complete")
	return signals, warnings
}

func (d *Detector) score(period models.Period, scope string, observed float64, window []float64, sensitivity float64) (models.AnomalySignal, bool) {
	mean := analyzer.Mean(window)
	sigma := math.Max(analyzer.StdDev(window), math.Max(d.cfg.MinRelativeStdDev*math.Abs(mean), 1))

	z := math.Abs(observed-mean) / sigma
	if z <= sensitivity {
		return models.AnomalySignal{}, false
	}

	severity := z / sensitivity
	return models.AnomalySignal{
		Period:   period,
		Scope:    scope,
		Observed: observed,
		Expected: mean,
		StdDev:   sigma,
		Score:    z,
		Severity: severity,
		Level:    Level(severity),
	}, true
}

// Level buckets a severity ratio
func Level(severity float64) models.SeverityLevel {
	switch {
	case severity >= 3:
		return models.SeverityCritical
	case severity >= 2:
		return models.SeverityHigh
	case severity >= 1.5:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// scopesOf lists the total followed by every dimension scope, sorted
func scopesOf(history []models.CostRecord) []scopeKey {
	seen := make(map[scopeKey]bool)
	var dims []scopeKey
	for _, rec := range history {
		for dim, values := range rec.Dimensions {
			for value := range values {
				k := scopeKey{dim, value}
				if !seen[k] {
					seen[k] = true
					dims = append(dims, k)
				}
			}
		}
	}
	sort.Slice(dims, func(i, j int) bool {
		if dims[i].dimension != dims[j].dimension {
			return dims[i].dimension < dims[j].dimension
		}
		return dims[i].value < dims[j].value
	})
	return append([]scopeKey{{}}, dims...)
}
