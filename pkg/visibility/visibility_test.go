package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/models"
)

func TestBreakdownLatestMonth(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []models.CostRecord{
		{
			Period:     models.Period{Start: jan, End: jan.AddDate(0, 1, 0)},
			Total:      100,
			Dimensions: map[string]map[string]float64{models.DimensionService: {"EC2": 100}},
		},
		{
			Period: models.Period{Start: jan.AddDate(0, 1, 0), End: jan.AddDate(0, 2, 0)},
			Total:  1000,
			Dimensions: map[string]map[string]float64{
				models.DimensionInstanceFamily: {"m5": 300},
				models.DimensionTeam:           {"backend": 250, "data": 250, "web": 500},
				models.DimensionService:        {"EC2": 600, "RDS": 400},
			},
		},
	}

	out := Breakdown(series)
	require.Len(t, out, 3)

	assert.Equal(t, models.DimensionService, out[0].Dimension)
	assert.Equal(t, models.DimensionTeam, out[1].Dimension)
	assert.Equal(t, models.DimensionInstanceFamily, out[2].Dimension)

	svc := out[0]
	assert.Equal(t, 1000.0, svc.Total)
	assert.Equal(t, "EC2", svc.Items[0].Value)
	assert.InDelta(t, 60.0, svc.Items[0].Percentage, 1e-9)
	assert.Equal(t, jan.AddDate(0, 1, 0), svc.Period.Start)

	team := out[1]
	assert.Equal(t, []string{"web", "backend", "data"}, []string{team.Items[0].Value, team.Items[1].Value, team.Items[2].Value})

	assert.InDelta(t, 100.0, out[2].Items[0].Percentage, 1e-9)
}

func TestBreakdownEmpty(t *testing.T) {
	assert.Nil(t, Breakdown(nil))
}

func monthlyTotals(amounts ...float64) []models.CostRecord {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.CostRecord, len(amounts))
	for i, a := range amounts {
		s := jan.AddDate(0, i, 0)
		out[i] = models.CostRecord{Period: models.Period{Start: s, End: s.AddDate(0, 1, 0)}, Total: a}
	}
	return out
}

func TestTrend(t *testing.T) {
	growing := Trend(monthlyTotals(1000, 1100, 1200, 1300))
	require.NotNil(t, growing)
	assert.Equal(t, 4, growing.Months)
	assert.InDelta(t, 100, growing.Slope, 1e-9)
	assert.InDelta(t, 1, growing.R2, 1e-9)
	assert.True(t, growing.Growing)

	flat := Trend(monthlyTotals(1000, 1000, 1000))
	require.NotNil(t, flat)
	assert.False(t, flat.Growing)
	assert.Zero(t, flat.RatePerMonth)

	assert.Nil(t, Trend(monthlyTotals(1000, 1100)))
}
