package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/finops-engine/pkg/models"
)

var _ Store = (*PostgresStore)(nil)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, applies the schema and returns the store
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 10))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 2))
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// SaveRun archives a result and its recommendations in one transaction
func (s *PostgresStore) SaveRun(ctx context.Context, account string, result *models.AnalysisResult) error {
	id, err := uuid.Parse(result.Metadata.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", result.Metadata.RunID, err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	sum := Summarize(account, result)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, account, analyzed_at, as_of,
			resource_count, finding_count, recommendation_count, anomaly_count, warning_count,
			monthly_waste_usd, monthly_savings_usd, compliance_pct, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		id, sum.Account, sum.AnalyzedAt, sum.AsOf,
		sum.ResourceCount, sum.FindingCount, sum.RecommendationCount, sum.AnomalyCount, sum.WarningCount,
		sum.MonthlyWaste, sum.MonthlySavings, sum.CompliancePct, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_recommendations (
			run_id, rank, resource_id, action, current_class, target_class,
			monthly_savings_usd, migration_cost_usd, risk
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range result.Recommendations {
		_, err := stmt.ExecContext(ctx,
			id, rec.Rank, rec.ResourceID, string(rec.Action),
			nullString(rec.CurrentClass), nullString(rec.TargetClass),
			rec.MonthlySavings, rec.MigrationCost, string(rec.Risk),
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation %d: %w", rec.Rank, err)
		}
	}

	return tx.Commit()
}

// GetRun returns the archived result of a run
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*models.AnalysisResult, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	var payload []byte
	err = s.db.QueryRowContext(ctx, `SELECT result FROM analysis_runs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &result, nil
}

// ListRuns returns the most recent runs, newest first. An empty account lists every account.
func (s *PostgresStore) ListRuns(ctx context.Context, account string, limit int) ([]*RunSummary, error) {
	query := `
		SELECT id, account, analyzed_at, as_of,
			resource_count, finding_count, recommendation_count, anomaly_count, warning_count,
			monthly_waste_usd, monthly_savings_usd, compliance_pct
		FROM analysis_runs
		WHERE ($1 = '' OR account = $1)
		ORDER BY analyzed_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, account, orDefault(limit, 20))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*RunSummary
	for rows.Next() {
		var r RunSummary
		var id uuid.UUID
		err := rows.Scan(
			&id, &r.Account, &r.AnalyzedAt, &r.AsOf,
			&r.ResourceCount, &r.FindingCount, &r.RecommendationCount, &r.AnomalyCount, &r.WarningCount,
			&r.MonthlyWaste, &r.MonthlySavings, &r.CompliancePct,
		)
		if err != nil {
			return nil, err
		}
		r.RunID = id.String()
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// SavingsTrend averages the reported savings potential per day over the last days
func (s *PostgresStore) SavingsTrend(ctx context.Context, account string, days int) ([]*TrendPoint, error) {
	query := `
		SELECT date_trunc('day', analyzed_at) AS day,
			COUNT(*),
			AVG(monthly_savings_usd),
			AVG(monthly_waste_usd)
		FROM analysis_runs
		WHERE ($1 = '' OR account = $1)
			AND analyzed_at > NOW() - make_interval(days => $2)
		GROUP BY day
		ORDER BY day
	`

	rows, err := s.db.QueryContext(ctx, query, account, orDefault(days, 30))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []*TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Day, &p.Runs, &p.MonthlySavings, &p.MonthlyWaste); err != nil {
			return nil, err
		}
		trend = append(trend, &p)
	}
	return trend, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
