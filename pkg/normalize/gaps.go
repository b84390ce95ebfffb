package normalize

import (
	"math"
	"sort"
	"time"

	"github.com/opscart/finops-engine/pkg/models"
)

// Granularity is the billing period length of a cost series
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// Gap is a stretch of missing periods between two consecutive records
type Gap struct {
	After   models.Period
	Before  models.Period
	Missing int
}

// DetectGranularity uses the median period length: 28 days or more is monthly
func DetectGranularity(series []models.CostRecord) Granularity {
	if len(series) == 0 {
		return GranularityMonthly
	}
	days := make([]int, len(series))
	for i, r := range series {
		days[i] = r.Period.Days()
	}
	sort.Ints(days)
	if days[len(days)/2] >= 28 {
		return GranularityMonthly
	}
	return GranularityDaily
}

// MissingBetween counts whole periods missing between two consecutive starts
func MissingBetween(prev, next time.Time, g Granularity) int {
	var steps int
	if g == GranularityMonthly {
		steps = (next.Year()-prev.Year())*12 + int(next.Month()-prev.Month())
	} else {
		steps = int(math.Round(next.Sub(prev).Hours() / 24))
	}
	if steps <= 1 {
		return 0
	}
	return steps - 1
}

// Gaps reports every gap wider than maxMissing periods
func Gaps(series []models.CostRecord, maxMissing int) []Gap {
	g := DetectGranularity(series)
	var gaps []Gap
	for i := 1; i < len(series); i++ {
		missing := MissingBetween(series[i-1].Period.Start, series[i].Period.Start, g)
		if missing > maxMissing {
			gaps = append(gaps, Gap{After: series[i-1].Period, Before: series[i].Period, Missing: missing})
		}
	}
	return gaps
}
