package normalize

import (
	"time"

	"github.com/opscart/finops-engine/pkg/models"
)

// Monthly rolls a cost series up to calendar months. Monthly input passes
// through unchanged. For daily input, a leading month whose data starts after
// the 1st and a trailing month whose data stops before the month ends are
// dropped as partial.
func Monthly(series []models.CostRecord) []models.CostRecord {
	if len(series) == 0 || DetectGranularity(series) == GranularityMonthly {
		return series
	}

	var out []models.CostRecord
	for _, rec := range series {
		start := monthStart(rec.Period.Start)
		if len(out) == 0 || !out[len(out)-1].Period.Start.Equal(start) {
			out = append(out, models.CostRecord{
				Period:     models.Period{Start: start, End: start.AddDate(0, 1, 0)},
				Dimensions: make(map[string]map[string]float64),
				Currency:   rec.Currency,
			})
		}
		m := &out[len(out)-1]
		m.Total += rec.Total
		for dim, values := range rec.Dimensions {
			if m.Dimensions[dim] == nil {
				m.Dimensions[dim] = make(map[string]float64, len(values))
			}
			for value, amount := range values {
				m.Dimensions[dim][value] += amount
			}
		}
	}

	last := series[len(series)-1]
	if last.Period.End.Before(out[len(out)-1].Period.End) {
		out = out[:len(out)-1]
	}
	if len(out) > 0 && series[0].Period.Start.After(out[0].Period.Start) {
		out = out[1:]
	}
	return out
}

// Series extracts one dimension scope as a plain slice of amounts.
// Periods without that scope count as zero.
func Series(records []models.CostRecord, dimension, value string) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i], _ = r.Amount(dimension, value)
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
