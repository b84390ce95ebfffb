package analyzer

import (
	"math"
	"testing"
)

func TestCalculateGrowthTrend(t *testing.T) {
	// 10% of a 100 base per period
	values := make([]float64, 12)
	for i := range values {
		values[i] = 100.0 + float64(i)*10.0
	}

	trend, err := CalculateGrowthTrend(values)
	if err != nil {
		t.Fatalf("CalculateGrowthTrend failed: %v", err)
	}

	if math.Abs(trend.Slope-10.0) > 1e-9 {
		t.Errorf("Expected slope 10, got %.4f", trend.Slope)
	}
	if math.Abs(trend.R2-1.0) > 1e-9 {
		t.Errorf("Expected perfect fit, got R2 %.4f", trend.R2)
	}
	if !trend.IsGrowing {
		t.Errorf("Expected IsGrowing=true, got false")
	}
}

func TestCalculateGrowthTrend_Steady(t *testing.T) {
	values := []float64{45000, 45000, 45000, 45000, 45000, 45000}

	trend, err := CalculateGrowthTrend(values)
	if err != nil {
		t.Fatalf("CalculateGrowthTrend failed: %v", err)
	}
	if trend.IsGrowing {
		t.Errorf("Expected steady series, got %.2f%%/month", trend.RatePerMonth)
	}
	if trend.Intercept != 45000 {
		t.Errorf("Expected intercept 45000, got %.2f", trend.Intercept)
	}
}

func TestCalculateGrowthTrend_Insufficient(t *testing.T) {
	if _, err := CalculateGrowthTrend([]float64{1, 2}); err == nil {
		t.Error("Expected error for two periods")
	}
}

func TestLinearRegression(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}

	slope, intercept, r2 := LinearRegression(x, y)
	if slope != 2 || intercept != 1 || r2 != 1 {
		t.Errorf("Expected y=2x+1 with R2=1, got slope=%.2f intercept=%.2f r2=%.2f", slope, intercept, r2)
	}

	slope, intercept, _ = LinearRegression([]float64{1, 1}, []float64{3, 5})
	if slope != 0 || intercept != 4 {
		t.Errorf("Expected degenerate x to return mean, got slope=%.2f intercept=%.2f", slope, intercept)
	}
}
