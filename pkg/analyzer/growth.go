package analyzer

import "fmt"

// CalculateGrowthTrend fits a linear trend to an evenly spaced series
// (one value per billing period).
func CalculateGrowthTrend(values []float64) (*GrowthTrend, error) {
	if len(values) < 3 {
		return &GrowthTrend{}, fmt.Errorf("insufficient data for trend analysis (need 3+ periods, got %d)", len(values))
	}

	x := make([]float64, len(values))
	for i := range values {
		x[i] = float64(i)
	}

	slope, intercept, r2 := LinearRegression(x, values)

	var ratePerMonth float64
	if mean := Mean(values); mean > 0 {
		ratePerMonth = slope / mean * 100.0
	}

	return &GrowthTrend{
		RatePerMonth: ratePerMonth,
		Slope:        slope,
		Intercept:    intercept,
		R2:           r2,
		// more than 3% per period counts as growth
		IsGrowing: ratePerMonth > 3.0,
	}, nil
}

// LinearRegression performs simple least-squares regression.
// Returns: slope, intercept, R² (coefficient of determination, clamped to [0, 1])
func LinearRegression(x, y []float64) (slope, intercept, r2 float64) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, 0, 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	numerator := 0.0
	denominator := 0.0
	for i := range x {
		numerator += (x[i] - meanX) * (y[i] - meanY)
		denominator += (x[i] - meanX) * (x[i] - meanX)
	}

	if denominator == 0 {
		return 0, meanY, 0
	}

	slope = numerator / denominator
	intercept = meanY - slope*meanX

	ssTotal := 0.0
	ssRes := 0.0
	for i := range x {
		predicted := slope*x[i] + intercept
		ssRes += (y[i] - predicted) * (y[i] - predicted)
		ssTotal += (y[i] - meanY) * (y[i] - meanY)
	}

	if ssTotal == 0 {
		r2 = 0
	} else {
		r2 = 1.0 - (ssRes / ssTotal)
	}

	if r2 < 0 {
		r2 = 0
	} else if r2 > 1 {
		r2 = 1
	}

	return slope, intercept, r2
}
