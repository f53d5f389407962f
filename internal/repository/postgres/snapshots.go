package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// table names are constants, never user input
func upsertSnapshot(ctx context.Context, db *pgxpool.Pool, table, userID string, data any, analyzed time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", table, err)
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (user_id, data, last_analyzed)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, last_analyzed = EXCLUDED.last_analyzed
    `, table)
	if _, err := db.Exec(ctx, query, userID, payload, analyzed); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *pgxpool.Pool, table, userID string, dst any) error {
	var payload []byte
	err := db.QueryRow(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE user_id = $1`, table), userID).Scan(&payload)
	if err != nil {
		return notFound(err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", table, err)
	}
	return nil
}

type patternRepository struct {
	db *pgxpool.Pool
}

func (r *patternRepository) SavePatternModel(ctx context.Context, model models.PatternModel) error {
	return upsertSnapshot(ctx, r.db, "pattern_models", model.UserID, model, model.LastAnalyzed)
}

func (r *patternRepository) GetPatternModel(ctx context.Context, userID string) (*models.PatternModel, error) {
	var model models.PatternModel
	if err := loadSnapshot(ctx, r.db, "pattern_models", userID, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

type correlationRepository struct {
	db *pgxpool.Pool
}

func (r *correlationRepository) SaveCorrelationAnalysis(ctx context.Context, analysis models.CorrelationAnalysis) error {
	return upsertSnapshot(ctx, r.db, "correlation_analyses", analysis.UserID, analysis, analysis.LastAnalyzed)
}

func (r *correlationRepository) GetCorrelationAnalysis(ctx context.Context, userID string) (*models.CorrelationAnalysis, error) {
	var analysis models.CorrelationAnalysis
	if err := loadSnapshot(ctx, r.db, "correlation_analyses", userID, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
