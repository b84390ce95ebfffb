package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opscart/finops-engine/pkg/models"
)

func TestSummarize(t *testing.T) {
	result := &models.AnalysisResult{
		Metadata: models.RunMetadata{
			RunID:         "6f1c2b9e-3f55-4bb4-9d0e-2a7a3c1b8e10",
			AnalyzedAt:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			ResourceCount: 20,
		},
		Findings: []models.WasteFinding{
			{MonthlyWaste: 30.37},
			{MonthlyWaste: 8},
		},
		Recommendations:     []models.Recommendation{{MonthlySavings: 38.37}},
		TotalMonthlySavings: 38.37,
		Anomalies:           []models.AnomalySignal{{}},
		Compliance:          models.ComplianceSummary{Percentage: 25},
	}

	s := Summarize("demo", result)
	assert.Equal(t, "demo", s.Account)
	assert.Equal(t, result.Metadata.RunID, s.RunID)
	assert.Equal(t, 20, s.ResourceCount)
	assert.Equal(t, 2, s.FindingCount)
	assert.Equal(t, 1, s.RecommendationCount)
	assert.Equal(t, 1, s.AnomalyCount)
	assert.InDelta(t, 38.37, s.MonthlyWaste, 1e-9)
	assert.Equal(t, 25.0, s.CompliancePct)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 20, orDefault(0, 20))
	assert.Equal(t, 5, orDefault(5, 20))
	assert.False(t, nullString("").Valid)
	assert.True(t, nullString("m5.large").Valid)
}
