package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/collector"
	"github.com/opscart/finops-engine/pkg/models"
)

func TestResourceValid(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec, err := Resource(collector.Resource{
		ID:          " i-1 ",
		Type:        "Compute",
		Region:      "us-east-1",
		State:       "RUNNING",
		MonthlyCost: "1,234.50",
		Tags:        map[string]string{" Team ": " backend ", "": "dropped"},
		Samples: []collector.Sample{
			{Timestamp: ts.Add(time.Hour), Metric: models.MetricCPU, Value: 2},
			{Timestamp: ts, Metric: models.MetricCPU, Value: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "i-1", rec.ID)
	assert.Equal(t, models.ResourceCompute, rec.Type)
	assert.Equal(t, models.KindInstance, rec.Kind)
	assert.Equal(t, models.StateRunning, rec.State)
	assert.Equal(t, 1234.5, rec.MonthlyCost)
	assert.Equal(t, map[string]string{"Team": "backend"}, rec.Tags)
	require.Len(t, rec.Samples, 2)
	assert.Equal(t, 1.0, rec.Samples[0].Value, "samples are ordered by time")
}

func TestResourceMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  collector.Resource
	}{
		{"missing id", collector.Resource{Region: "us-east-1", Kind: "volume", State: "available"}},
		{"missing region", collector.Resource{ID: "vol-1", Kind: "volume", State: "available"}},
		{"unknown kind", collector.Resource{ID: "x", Region: "r", Kind: "teleporter", State: "available"}},
		{"kind and type disagree", collector.Resource{ID: "x", Region: "r", Kind: "volume", Type: "compute", State: "available"}},
		{"ambiguous type", collector.Resource{ID: "x", Region: "r", Type: "storage", State: "available"}},
		{"unknown state", collector.Resource{ID: "x", Region: "r", Kind: "volume", State: "melting"}},
		{"bad cost", collector.Resource{ID: "x", Region: "r", Kind: "volume", State: "available", MonthlyCost: "ten"}},
		{"negative cost", collector.Resource{ID: "x", Region: "r", Kind: "volume", State: "available", MonthlyCost: "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resource(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResource))
		})
	}
}

func TestResourcesSkipsAndContinues(t *testing.T) {
	raw := []collector.Resource{
		{ID: "vol-2", Region: "us-east-1", Kind: "volume", State: "available"},
		{ID: "", Region: "us-east-1", Kind: "volume", State: "available"},
		{ID: "vol-1", Region: "us-east-1", Kind: "volume", State: "in-use"},
		{ID: "vol-1", Region: "us-east-1", Kind: "volume", State: "in-use"},
	}

	records, skipped := Resources(raw)
	require.Len(t, records, 2)
	assert.Equal(t, "vol-1", records[0].ID)
	assert.Equal(t, "vol-2", records[1].ID)

	require.Len(t, skipped, 2)
	assert.Contains(t, skipped[0].Reason, "missing id")
	assert.Equal(t, "duplicate resource id", skipped[1].Reason)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   collector.Amount
		want float64
		ok   bool
	}{
		{"", 0, true},
		{"12.34", 12.34, true},
		{"$45,000.00", 45000, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if !tt.ok {
			assert.Error(t, err, string(tt.in))
			continue
		}
		require.NoError(t, err, string(tt.in))
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestCostsSortsAndSkips(t *testing.T) {
	raw := []collector.CostEntry{
		{Start: "2025-03-01", End: "2025-04-01", Total: "300"},
		{Start: "2025-01-01", End: "2025-02-01", Total: "100", Dimensions: map[string]map[string]collector.Amount{
			"Service": {"EC2": "60", "S3": "40"},
		}},
		{Start: "2025-02-01", Total: "200"},
		{Start: "not-a-date", End: "2025-02-01", Total: "1"},
		{Start: "2025-02-01", End: "2025-03-01", Total: "999"},
		{Start: "2025-04-01", End: "2025-05-01", Total: "5", Currency: "EUR"},
		{Start: "2025-05-01", End: "2025-05-01", Total: "5"},
		{Start: "2025-06-01", End: "2025-07-01"},
	}

	records, skipped := Costs(raw)
	require.Len(t, records, 3)
	assert.Equal(t, 100.0, records[0].Total)
	assert.Equal(t, 200.0, records[1].Total)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), records[1].Period.End)
	assert.Equal(t, 300.0, records[2].Total)
	assert.Equal(t, 60.0, records[0].Dimensions["Service"]["EC2"])
	assert.Equal(t, "USD", records[0].Currency)

	assert.Len(t, skipped, 5)
	for _, s := range skipped {
		assert.Equal(t, "cost", s.Source)
		assert.Contains(t, s.Reason, ErrMalformedCost.Error())
	}
}

func TestCostsInferDailyPeriods(t *testing.T) {
	raw := []collector.CostEntry{
		{Start: "2025-01-01", Total: "10"},
		{Start: "2025-01-02", Total: "11"},
		{Start: "2025-01-03", Total: "12"},
	}

	records, skipped := Costs(raw)
	assert.Empty(t, skipped)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, 1, r.Period.Days())
	}
	assert.Equal(t, GranularityDaily, DetectGranularity(records))
}

func monthly(start time.Time, months ...int) []models.CostRecord {
	var out []models.CostRecord
	for _, m := range months {
		s := start.AddDate(0, m, 0)
		out = append(out, models.CostRecord{Period: models.Period{Start: s, End: s.AddDate(0, 1, 0)}, Total: 1})
	}
	return out
}

func TestGaps(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, Gaps(monthly(jan, 0, 1, 2, 3), 1))
	assert.Empty(t, Gaps(monthly(jan, 0, 1, 3), 1), "one missing month is tolerated")

	gaps := Gaps(monthly(jan, 0, 1, 5, 6), 1)
	require.Len(t, gaps, 1)
	assert.Equal(t, 3, gaps[0].Missing)
	assert.Equal(t, jan.AddDate(0, 1, 0), gaps[0].After.Start)
}

func TestDetectGranularity(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, GranularityMonthly, DetectGranularity(monthly(jan, 0, 1, 2)))

	daily := []models.CostRecord{
		{Period: models.Period{Start: jan, End: jan.AddDate(0, 0, 1)}},
		{Period: models.Period{Start: jan.AddDate(0, 0, 1), End: jan.AddDate(0, 0, 2)}},
		{Period: models.Period{Start: jan.AddDate(0, 0, 5), End: jan.AddDate(0, 0, 6)}},
	}
	assert.Equal(t, GranularityDaily, DetectGranularity(daily))
	assert.Equal(t, 3, MissingBetween(daily[1].Period.Start, daily[2].Period.Start, GranularityDaily))
}

func TestMonthlyRollsUpDaily(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var daily []models.CostRecord
	// all of January and February, then ten days of March
	for d := 0; d < 31+28+10; d++ {
		s := jan.AddDate(0, 0, d)
		daily = append(daily, models.CostRecord{
			Period:     models.Period{Start: s, End: s.AddDate(0, 0, 1)},
			Total:      10,
			Currency:   "USD",
			Dimensions: map[string]map[string]float64{"Service": {"EC2": 6, "S3": 4}},
		})
	}

	months := Monthly(daily)
	require.Len(t, months, 2, "partial March is dropped")
	assert.Equal(t, 310.0, months[0].Total)
	assert.Equal(t, 280.0, months[1].Total)
	assert.Equal(t, 168.0, months[1].Dimensions["Service"]["EC2"])
	assert.Equal(t, jan.AddDate(0, 1, 0), months[0].Period.End)

	assert.Equal(t, []float64{186, 168}, Series(months, "Service", "EC2"))
	assert.Equal(t, []float64{0, 0}, Series(months, "Service", "Lambda"))
	assert.Equal(t, []float64{310, 280}, Series(months, "", ""))
}

func TestMonthlyDropsPartialLeadingMonth(t *testing.T) {
	start := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var daily []models.CostRecord
	for s := start; s.Before(end); s = s.AddDate(0, 0, 1) {
		daily = append(daily, models.CostRecord{Period: models.Period{Start: s, End: s.AddDate(0, 0, 1)}, Total: 1000})
	}

	months := Monthly(daily)
	require.Len(t, months, 3, "January starts on the 16th")
	assert.Equal(t, time.February, months[0].Period.Start.Month())
	assert.Equal(t, []float64{29000, 31000, 30000}, Series(months, "", ""))
}

func TestMonthlyPassesThroughMonthly(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := monthly(jan, 0, 1, 2)
	assert.Equal(t, series, Monthly(series))
}
