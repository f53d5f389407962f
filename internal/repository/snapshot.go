package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

// Pattern models and correlation analyses are stored whole, one row per
// user, in a jsonb column.

type snapshotRow[T any] struct {
	UserID       string    `json:"user_id"`
	Data         T         `json:"data"`
	LastAnalyzed time.Time `json:"last_analyzed"`
}

func saveSnapshot[T any](ctx context.Context, client *supabase.Client, table, userID string, data T, analyzed time.Time) error {
	row := snapshotRow[T]{UserID: userID, Data: data, LastAnalyzed: analyzed}
	if _, err := client.Upsert(ctx, table, row, "user_id"); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

func getSnapshot[T any](ctx context.Context, client *supabase.Client, table, userID string) (*T, error) {
	body, err := client.Query(ctx, table, supabase.Filter{
		"select":  "*",
		"user_id": "eq." + userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", table, err)
	}

	var rows []snapshotRow[T]
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0].Data, nil
}

type patternRepository struct {
	client *supabase.Client
}

func NewPatternRepository(client *supabase.Client) PatternRepository {
	return &patternRepository{client: client}
}

func (r *patternRepository) SavePatternModel(ctx context.Context, model models.PatternModel) error {
	return saveSnapshot(ctx, r.client, "pattern_models", model.UserID, model, model.LastAnalyzed)
}

func (r *patternRepository) GetPatternModel(ctx context.Context, userID string) (*models.PatternModel, error) {
	return getSnapshot[models.PatternModel](ctx, r.client, "pattern_models", userID)
}

type correlationRepository struct {
	client *supabase.Client
}

func NewCorrelationRepository(client *supabase.Client) CorrelationRepository {
	return &correlationRepository{client: client}
}

func (r *correlationRepository) SaveCorrelationAnalysis(ctx context.Context, analysis models.CorrelationAnalysis) error {
	return saveSnapshot(ctx, r.client, "correlation_analyses", analysis.UserID, analysis, analysis.LastAnalyzed)
}

func (r *correlationRepository) GetCorrelationAnalysis(ctx context.Context, userID string) (*models.CorrelationAnalysis, error) {
	return getSnapshot[models.CorrelationAnalysis](ctx, r.client, "correlation_analyses", userID)
}
