package analyzer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/opscart/finops-engine/pkg/models"
)

// ErrMalformedSample is returned when a sample value cannot be a utilization reading
var ErrMalformedSample = errors.New("malformed utilization sample")

// Summarize condenses the samples of one metric in the window (asOf-window, asOf].
// Coverage counts distinct sample slots of width interval, so duplicate readings
// inside one slot do not inflate it.
func Summarize(res models.ResourceRecord, metric string, asOf time.Time, window, interval time.Duration) (*UtilizationSummary, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %s", interval)
	}

	start := asOf.Add(-window)
	summary := &UtilizationSummary{
		Metric:      metric,
		WindowStart: start,
		WindowEnd:   asOf,
		Expected:    int(math.Max(1, math.Round(float64(window)/float64(interval)))),
	}

	slots := make(map[int64]struct{})
	values := make([]float64, 0, len(res.Samples))
	for _, s := range res.Samples {
		if s.Metric != metric || !s.Timestamp.After(start) || s.Timestamp.After(asOf) {
			continue
		}
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) || s.Value < 0 {
			return nil, fmt.Errorf("%w: %s %s=%v at %s", ErrMalformedSample, res.ID, metric, s.Value, s.Timestamp.Format(time.RFC3339))
		}
		slots[int64(s.Timestamp.Sub(start)/interval)] = struct{}{}
		values = append(values, s.Value)
	}

	summary.Samples = len(values)
	summary.Coverage = math.Min(1, float64(len(slots))/float64(summary.Expected))
	if len(values) == 0 {
		return summary, nil
	}

	for _, v := range values {
		summary.Sum += v
	}
	summary.Mean = summary.Sum / float64(len(values))

	percentiles, err := CalculatePercentiles(values)
	if err != nil {
		return nil, err
	}
	summary.Percentiles = *percentiles
	return summary, nil
}
