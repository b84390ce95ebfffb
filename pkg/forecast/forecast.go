// Package forecast projects monthly spend under optimization scenarios.
//
// The baseline is a linear trend fitted to log spend (so growth compounds),
// with a month-of-cycle seasonal index once two full cycles of history exist.
// Interval half-width is z * residual sigma * sqrt(months ahead).
// Optimization scenarios subtract a share of the savings potential from the
// baseline, phased in linearly and then held.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/normalize"
)

// MinPeriods is the shortest monthly history a forecast is fitted to
const MinPeriods = 3

var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrLargeHistoryGap     = errors.New("large history gap")
	ErrUnknownScenario     = errors.New("unknown scenario")
)

// GapError reports the most recent gap that exceeded the tolerance
type GapError struct {
	Gap       normalize.Gap
	Tolerance int
}

func (e *GapError) Error() string {
	return fmt.Sprintf("%v: %d months missing between %s and %s (tolerance %d)",
		ErrLargeHistoryGap, e.Gap.Missing,
		e.Gap.After.Start.Format("2006-01"), e.Gap.Before.Start.Format("2006-01"), e.Tolerance)
}

func (e *GapError) Unwrap() error {
	return ErrLargeHistoryGap
}

// Forecaster fits and projects cost series
type Forecaster struct {
	cfg    config.ForecastConfig
	logger zerolog.Logger
}

// New creates a forecaster
func New(cfg config.ForecastConfig, logger zerolog.Logger) *Forecaster {
	return &Forecaster{
		cfg:    cfg,
		logger: logger.With().Str("component", "forecast").Logger(),
	}
}

// Forecast projects horizonMonths beyond the end of history for each scenario.
// An empty scenario list means all scenarios.
func (f *Forecaster) Forecast(history []models.CostRecord, horizonMonths int, scenarios []models.ScenarioID, potential float64) (map[models.ScenarioID][]models.ForecastPoint, error) {
	if horizonMonths < 1 {
		return nil, fmt.Errorf("horizon must be at least one month, got %d", horizonMonths)
	}
	if len(scenarios) == 0 {
		scenarios = models.Scenarios
	}
	for _, s := range scenarios {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, s)
		}
	}

	months := normalize.Monthly(history)
	if len(months) < MinPeriods {
		return nil, fmt.Errorf("%w: need %d months, have %d", ErrInsufficientHistory, MinPeriods, len(months))
	}
	if gaps := normalize.Gaps(months, f.cfg.MaxGapPeriods); len(gaps) > 0 {
		return nil, &GapError{Gap: gaps[len(gaps)-1], Tolerance: f.cfg.MaxGapPeriods}
	}

	m := fit(months, f.cfg.SeasonalPeriod)
	baseline := m.project(months[len(months)-1].Period.Start, horizonMonths, z(f.cfg.ConfidenceLevel), f.cfg.ConfidenceLevel)

	if potential < 0 {
		potential = 0
	}

	out := make(map[models.ScenarioID][]models.ForecastPoint, len(scenarios))
	for _, s := range scenarios {
		out[s] = f.applyScenario(baseline, s, potential)
	}

	f.logger.Debug().Int("history_months", len(months)).Int("horizon", horizonMonths).
		Float64("slope", m.slope).Bool("log_scale", m.logScale).Bool("seasonal", m.seasonal != nil).
		Float64("sigma", m.sigma).Msg("forecast fitted")
	return out, nil
}

// reductionShare is the fraction of the savings potential a scenario realizes
func (f *Forecaster) reductionShare(s models.ScenarioID) float64 {
	switch s {
	case models.ScenarioConservative:
		return f.cfg.ConservativePct
	case models.ScenarioAggressive:
		return f.cfg.AggressivePct
	default:
		return 0
	}
}

func (f *Forecaster) applyScenario(baseline []models.ForecastPoint, s models.ScenarioID, potential float64) []models.ForecastPoint {
	share := f.reductionShare(s)
	phase := f.cfg.PhaseInMonths
	if phase < 1 {
		phase = 1
	}

	out := make([]models.ForecastPoint, len(baseline))
	for i, p := range baseline {
		reduction := share * potential * math.Min(1, float64(i+1)/float64(phase))

		point := math.Max(0, p.Point-reduction)
		lower := math.Min(point, math.Max(0, p.Lower-reduction))
		upper := math.Max(point, p.Upper-reduction)

		p.Scenario = s
		p.Point, p.Lower, p.Upper = point, lower, upper
		out[i] = p
	}
	return out
}

// TrailingSegment returns the monthly history after the most recent gap wider
// than maxGap months
func TrailingSegment(history []models.CostRecord, maxGap int) []models.CostRecord {
	months := normalize.Monthly(history)
	gaps := normalize.Gaps(months, maxGap)
	if len(gaps) == 0 {
		return months
	}
	last := gaps[len(gaps)-1].Before.Start
	for i, m := range months {
		if m.Period.Start.Equal(last) {
			return months[i:]
		}
	}
	return nil
}

// z is the two-sided standard normal quantile for a confidence level
func z(level float64) float64 {
	return math.Sqrt2 * math.Erfinv(level)
}

// model is a fitted trend (+ optional seasonal index)
type model struct {
	slope, intercept float64
	logScale         bool
	seasonal         []float64
	period           int
	lastX            int
	sigma            float64
}

func fit(months []models.CostRecord, period int) *model {
	first := months[0].Period.Start
	n := len(months)

	xs := make([]int, n)
	x := make([]float64, n)
	amounts := normalize.Series(months, "", "")
	for i, rec := range months {
		xs[i] = monthIndex(first, rec.Period.Start)
		x[i] = float64(xs[i])
	}

	m := &model{logScale: true, period: period, lastX: xs[n-1]}
	for _, a := range amounts {
		if a <= 0 {
			m.logScale = false
			break
		}
	}

	y := make([]float64, n)
	for i, a := range amounts {
		y[i] = m.transform(a)
	}
	m.slope, m.intercept, _ = analyzer.LinearRegression(x, y)

	if period >= 2 && n >= 2*period {
		sums := make([]float64, period)
		counts := make([]int, period)
		for i := range y {
			pos := xs[i] % period
			sums[pos] += y[i] - (m.intercept + m.slope*x[i])
			counts[pos]++
		}
		m.seasonal = make([]float64, period)
		mean := 0.0
		for p := range sums {
			if counts[p] > 0 {
				m.seasonal[p] = sums[p] / float64(counts[p])
			}
			mean += m.seasonal[p]
		}
		mean /= float64(period)
		for p := range m.seasonal {
			m.seasonal[p] -= mean
		}
	}

	sse := 0.0
	for i, a := range amounts {
		r := a - m.at(xs[i])
		sse += r * r
	}
	dof := n - 2
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(sse / float64(dof))
	return m
}

func (m *model) transform(a float64) float64 {
	if m.logScale {
		return math.Log(a)
	}
	return a
}

// at is the fitted amount at month index x
func (m *model) at(x int) float64 {
	v := m.intercept + m.slope*float64(x)
	if m.seasonal != nil {
		v += m.seasonal[x%m.period]
	}
	if m.logScale {
		return math.Exp(v)
	}
	return math.Max(0, v)
}

// project extends the fit horizon months past lastStart
func (m *model) project(lastStart time.Time, horizon int, zScore, level float64) []models.ForecastPoint {
	points := make([]models.ForecastPoint, horizon)
	for h := 1; h <= horizon; h++ {
		point := m.at(m.lastX + h)
		width := zScore * m.sigma * math.Sqrt(float64(h))
		start := lastStart.AddDate(0, h, 0)

		points[h-1] = models.ForecastPoint{
			Period:          start.Format("2006-01"),
			PeriodStart:     start,
			Scenario:        models.ScenarioBaseline,
			Point:           point,
			Lower:           math.Max(0, point-width),
			Upper:           point + width,
			ConfidenceLevel: level,
		}
	}
	return points
}

func monthIndex(first, t time.Time) int {
	return (t.Year()-first.Year())*12 + int(t.Month()-first.Month())
}
