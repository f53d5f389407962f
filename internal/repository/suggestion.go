package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

type suggestionRepository struct {
	client *supabase.Client
}

func NewSuggestionRepository(client *supabase.Client) SuggestionRepository {
	return &suggestionRepository{client: client}
}

func (r *suggestionRepository) ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	q := supabase.Filter{
		"select":  "*",
		"user_id": "eq." + userID,
		"order":   "created_at.desc",
	}
	if filter.Read != nil {
		q["read"] = "eq." + strconv.FormatBool(*filter.Read)
	}
	if filter.Type != "" {
		q["type"] = "eq." + string(filter.Type)
	}

	body, err := r.client.Query(ctx, "suggestions", q)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
	}
	return suggestions, nil
}

func (r *suggestionRepository) InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	if _, err := r.client.Insert(ctx, "suggestions", suggestions); err != nil {
		return fmt.Errorf("failed to insert suggestions: %w", err)
	}
	return nil
}

func (r *suggestionRepository) GetSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	body, err := r.client.Query(ctx, "suggestions", supabase.Filter{
		"select":  "*",
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}
	if len(suggestions) == 0 {
		return nil, ErrNotFound
	}
	return &suggestions[0], nil
}

func (r *suggestionRepository) UpdateSuggestion(ctx context.Context, s models.Suggestion) error {
	body, err := r.client.UpdateWhere(ctx, "suggestions", supabase.Filter{
		"id":      "eq." + s.ID,
		"user_id": "eq." + s.UserID,
	}, map[string]any{
		"read":     s.Read,
		"acted_on": s.ActedOn,
	})
	if err != nil {
		return fmt.Errorf("failed to update suggestion: %w", err)
	}
	return requireRows(body)
}

func (r *suggestionRepository) DeleteSuggestion(ctx context.Context, userID, id string) error {
	body, err := r.client.DeleteWhere(ctx, "suggestions", supabase.Filter{
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete suggestion: %w", err)
	}
	return requireRows(body)
}

// requireRows turns an empty PostgREST representation into ErrNotFound.
func requireRows(body []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}
