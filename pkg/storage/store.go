// Package storage archives analysis runs. The engine never reads the archive
// back; it exists for run history and trend reporting.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/opscart/finops-engine/pkg/models"
)

// ErrRunNotFound is returned when no archived run has the requested id
var ErrRunNotFound = errors.New("run not found")

// Store defines the interface for the run archive
type Store interface {
	SaveRun(ctx context.Context, account string, result *models.AnalysisResult) error
	GetRun(ctx context.Context, runID string) (*models.AnalysisResult, error)
	ListRuns(ctx context.Context, account string, limit int) ([]*RunSummary, error)
	SavingsTrend(ctx context.Context, account string, days int) ([]*TrendPoint, error)

	Ping(ctx context.Context) error
	Close() error
}

// RunSummary is the headline of one archived run
type RunSummary struct {
	RunID               string
	Account             string
	AnalyzedAt          time.Time
	AsOf                time.Time
	ResourceCount       int
	FindingCount        int
	RecommendationCount int
	AnomalyCount        int
	WarningCount        int
	MonthlyWaste        float64
	MonthlySavings      float64
	CompliancePct       float64
}

// TrendPoint is the savings potential reported on one day
type TrendPoint struct {
	Day            time.Time
	Runs           int
	MonthlySavings float64
	MonthlyWaste   float64
}

// Summarize extracts the archived headline from a result
func Summarize(account string, result *models.AnalysisResult) *RunSummary {
	return &RunSummary{
		RunID:               result.Metadata.RunID,
		Account:             account,
		AnalyzedAt:          result.Metadata.AnalyzedAt,
		AsOf:                result.Metadata.AsOf,
		ResourceCount:       result.Metadata.ResourceCount,
		FindingCount:        len(result.Findings),
		RecommendationCount: len(result.Recommendations),
		AnomalyCount:        len(result.Anomalies),
		WarningCount:        len(result.Warnings),
		MonthlyWaste:        result.TotalMonthlyWaste(),
		MonthlySavings:      result.TotalMonthlySavings,
		CompliancePct:       result.Compliance.Percentage,
	}
}

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
