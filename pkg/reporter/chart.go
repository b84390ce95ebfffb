package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/opscart/finops-engine/pkg/models"
)

// ErrNoForecast is returned when a chart is requested for a result without a forecast
var ErrNoForecast = errors.New("result has no forecast to plot")

var scenarioColors = map[models.ScenarioID]drawing.Color{
	models.ScenarioBaseline:     chart.ColorBlue,
	models.ScenarioConservative: chart.ColorOrange,
	models.ScenarioAggressive:   chart.ColorGreen,
}

// WriteForecastChart renders the scenario forecasts as a PNG line chart, with
// the baseline interval drawn as dashed bounds
func WriteForecastChart(result *models.AnalysisResult, w io.Writer) error {
	baseline := result.Forecasts[models.ScenarioBaseline]
	if len(baseline) < 2 {
		return ErrNoForecast
	}

	maxY := 0.0
	var series []chart.Series
	for _, id := range models.Scenarios {
		points, ok := result.Forecasts[id]
		if !ok {
			continue
		}
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, p := range points {
			x[i] = p.PeriodStart
			y[i] = p.Point
			if p.Upper > maxY {
				maxY = p.Upper
			}
		}
		series = append(series, chart.TimeSeries{
			Name:    string(id),
			XValues: x,
			YValues: y,
			Style:   chart.Style{StrokeColor: scenarioColors[id], StrokeWidth: 2},
		})
	}

	x := make([]time.Time, len(baseline))
	lower := make([]float64, len(baseline))
	upper := make([]float64, len(baseline))
	for i, p := range baseline {
		x[i], lower[i], upper[i] = p.PeriodStart, p.Lower, p.Upper
	}
	band := chart.Style{StrokeColor: chart.ColorBlue.WithAlpha(96), StrokeDashArray: []float64{5, 5}}
	series = append(series,
		chart.TimeSeries{Name: "baseline lower", XValues: x, YValues: lower, Style: band},
		chart.TimeSeries{Name: "baseline upper", XValues: x, YValues: upper, Style: band},
	)

	if maxY <= 0 {
		maxY = 1
	}
	moneyFormatter := func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return Money(f)
		}
		return ""
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%d-month cost forecast", len(baseline)),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			Name:           "Monthly cost",
			ValueFormatter: moneyFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render forecast chart: %w", err)
	}
	return nil
}

// WriteForecastChartFile writes the forecast chart to path, creating parent directories
func WriteForecastChartFile(result *models.AnalysisResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer file.Close()

	return WriteForecastChart(result, file)
}
