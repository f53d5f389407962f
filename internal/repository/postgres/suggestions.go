package postgres

import (
	"context"
	"fmt"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const suggestionColumns = `id, user_id, category_id, type, title, message, priority, confidence,
        timing, action_type, read, acted_on, created_at, expires_at`

type suggestionRepository struct {
	db *pgxpool.Pool
}

func scanSuggestion(row pgx.Row) (models.Suggestion, error) {
	var s models.Suggestion
	err := row.Scan(&s.ID, &s.UserID, &s.CategoryID, &s.Type, &s.Title, &s.Message, &s.Priority, &s.Confidence,
		&s.Timing, &s.ActionType, &s.Read, &s.ActedOn, &s.CreatedAt, &s.ExpiresAt)
	return s, err
}

func (r *suggestionRepository) ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE user_id = $1`
	args := []any{userID}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		query += fmt.Sprintf(" AND read = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *suggestionRepository) InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range suggestions {
		batch.Queue(`INSERT INTO suggestions (`+suggestionColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			s.ID, s.UserID, s.CategoryID, string(s.Type), s.Title, s.Message, string(s.Priority), s.Confidence,
			string(s.Timing), string(s.ActionType), s.Read, s.ActedOn, s.CreatedAt, s.ExpiresAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert suggestions: %w", err)
	}
	return nil
}

func (r *suggestionRepository) GetSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	row := r.db.QueryRow(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1 AND user_id = $2`, id, userID)
	s, err := scanSuggestion(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *suggestionRepository) UpdateSuggestion(ctx context.Context, s models.Suggestion) error {
	tag, err := r.db.Exec(ctx, `UPDATE suggestions SET read = $3, acted_on = $4 WHERE id = $1 AND user_id = $2`,
		s.ID, s.UserID, s.Read, s.ActedOn)
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	return affected(tag)
}

func (r *suggestionRepository) DeleteSuggestion(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suggestions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete suggestion: %w", err)
	}
	return affected(tag)
}
