package analyzer

import "time"

// Percentiles contains statistical percentiles
type Percentiles struct {
	Average float64
	P50     float64
	P90     float64
	P95     float64
	P99     float64
	Peak    float64
	Min     float64
}

// UsagePattern describes how variable a series is
type UsagePattern struct {
	Type       string  // "steady", "moderate", "spiky", "highly-variable", "unknown"
	Variation  float64 // coefficient of variation
	Confidence float64
}

// GrowthTrend is a fitted linear trend over a monthly series
type GrowthTrend struct {
	RatePerMonth float64 // percent of the mean, per period
	Slope        float64
	Intercept    float64
	R2           float64
	IsGrowing    bool
}

// UtilizationSummary condenses one metric of one resource over a trailing window
type UtilizationSummary struct {
	Metric      string
	WindowStart time.Time
	WindowEnd   time.Time
	Samples     int
	Expected    int
	Coverage    float64 // observed sample slots / expected slots, capped at 1
	Mean        float64
	Sum         float64
	Percentiles Percentiles
}
