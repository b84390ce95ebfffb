//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/models"
)

// Run with: FINOPS_TEST_DSN=postgres://... go test -tags integration ./pkg/storage
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("FINOPS_TEST_DSN")
	if dsn == "" {
		t.Skip("FINOPS_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	account := "it-" + uuid.NewString()[:8]
	result := &models.AnalysisResult{
		Metadata: models.RunMetadata{
			RunID:      uuid.NewString(),
			AnalyzedAt: time.Now().UTC().Truncate(time.Second),
			AsOf:       time.Now().UTC().Truncate(time.Second),
		},
		Findings: []models.WasteFinding{{ResourceID: "i-1", Category: models.CategoryIdleCompute, MonthlyWaste: 30.37}},
		Recommendations: []models.Recommendation{
			{Rank: 1, ResourceID: "i-1", Action: models.ActionTerminate, MonthlySavings: 30.37, Risk: models.RiskMedium},
			{Rank: 2, ResourceID: "i-2", Action: models.ActionRightSize, CurrentClass: "m5.xlarge", TargetClass: "m5.large",
				MonthlySavings: 70.08, MigrationCost: 25, Risk: models.RiskMedium},
		},
		TotalMonthlySavings: 100.45,
	}
	require.NoError(t, store.SaveRun(ctx, account, result))

	runs, err := store.ListRuns(ctx, account, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.Metadata.RunID, runs[0].RunID)
	assert.Equal(t, 2, runs[0].RecommendationCount)
	assert.InDelta(t, 100.45, runs[0].MonthlySavings, 0.001)

	got, err := store.GetRun(ctx, result.Metadata.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Recommendations, got.Recommendations)

	trend, err := store.SavingsTrend(ctx, account, 7)
	require.NoError(t, err)
	require.NotEmpty(t, trend)
	assert.Equal(t, 1, trend[len(trend)-1].Runs)

	_, err = store.GetRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)
}
