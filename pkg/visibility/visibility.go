// Package visibility breaks the latest month of spend down by dimension and
// reports how spend has been moving.
package visibility

import (
	"sort"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/normalize"
)

// DefaultDimensions are reported first, in this order, when present
var DefaultDimensions = []string{
	models.DimensionService,
	models.DimensionTeam,
	models.DimensionEnvironment,
}

// Breakdown reports every dimension of the latest complete month. Daily
// series are rolled up first. Percentages are shares of the dimension's own
// total, so dimensions that only cover part of the bill still sum to 100.
func Breakdown(series []models.CostRecord) []models.CostBreakdown {
	months := normalize.Monthly(series)
	if len(months) == 0 {
		return nil
	}
	latest := months[len(months)-1]

	var out []models.CostBreakdown
	for _, dim := range dimensionOrder(latest) {
		out = append(out, breakdown(latest, dim))
	}
	return out
}

// Trend fits a linear trend to monthly totals. It is nil with fewer than three
// complete months.
func Trend(series []models.CostRecord) *models.SpendTrend {
	months := normalize.Monthly(series)
	trend, err := analyzer.CalculateGrowthTrend(normalize.Series(months, "", ""))
	if err != nil {
		return nil
	}
	return &models.SpendTrend{
		Months:       len(months),
		RatePerMonth: trend.RatePerMonth,
		Slope:        trend.Slope,
		R2:           trend.R2,
		Growing:      trend.IsGrowing,
	}
}

func breakdown(rec models.CostRecord, dim string) models.CostBreakdown {
	b := models.CostBreakdown{Dimension: dim, Period: rec.Period}
	for value, amount := range rec.Dimensions[dim] {
		b.Items = append(b.Items, models.BreakdownItem{Value: value, Amount: amount})
		b.Total += amount
	}

	sort.Slice(b.Items, func(i, j int) bool {
		if b.Items[i].Amount != b.Items[j].Amount {
			return b.Items[i].Amount > b.Items[j].Amount
		}
		return b.Items[i].Value < b.Items[j].Value
	})

	if b.Total > 0 {
		for i := range b.Items {
			b.Items[i].Percentage = b.Items[i].Amount / b.Total * 100
		}
	}
	return b
}

func dimensionOrder(rec models.CostRecord) []string {
	var order []string
	seen := make(map[string]bool)
	for _, dim := range DefaultDimensions {
		if _, ok := rec.Dimensions[dim]; ok {
			order = append(order, dim)
			seen[dim] = true
		}
	}

	var rest []string
	for dim := range rec.Dimensions {
		if !seen[dim] {
			rest = append(rest, dim)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
