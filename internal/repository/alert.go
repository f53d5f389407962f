package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

type alertRepository struct {
	client *supabase.Client
}

func NewAlertRepository(client *supabase.Client) AlertRepository {
	return &alertRepository{client: client}
}

func (r *alertRepository) ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error) {
	q := supabase.Filter{
		"select":  "*",
		"user_id": "eq." + userID,
		"order":   "created_at.desc",
	}
	if filter.UnreadOnly {
		q["read"] = "eq.false"
	}
	if filter.Type != "" {
		q["type"] = "eq." + string(filter.Type)
	}
	if filter.CategoryID != "" {
		q["category_id"] = "eq." + filter.CategoryID
	}

	body, err := r.client.Query(ctx, "alerts", q)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	var alerts []models.Alert
	if err := json.Unmarshal(body, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
	}
	return alerts, nil
}

// CreateAlert relies on the alerts_one_unread partial unique index; PostgREST
// reports a violation as 409.
func (r *alertRepository) CreateAlert(ctx context.Context, alert models.Alert) error {
	if _, err := r.client.Insert(ctx, "alerts", alert); err != nil {
		if supabase.IsConflict(err) {
			return &analytics.ConflictError{Resource: "alert", ID: alert.CategoryID}
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *alertRepository) GetAlert(ctx context.Context, userID, id string) (*models.Alert, error) {
	body, err := r.client.Query(ctx, "alerts", supabase.Filter{
		"select":  "*",
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	var alerts []models.Alert
	if err := json.Unmarshal(body, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}
	if len(alerts) == 0 {
		return nil, ErrNotFound
	}
	return &alerts[0], nil
}

func (r *alertRepository) MarkAlertRead(ctx context.Context, userID, id string, readAt time.Time) error {
	body, err := r.client.UpdateWhere(ctx, "alerts", supabase.Filter{
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	}, map[string]any{
		"read":    true,
		"read_at": readAt,
	})
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	return requireRows(body)
}

func (r *alertRepository) UpdateAlertAction(ctx context.Context, userID, id string, action models.AlertActionData) error {
	body, err := r.client.UpdateWhere(ctx, "alerts", supabase.Filter{
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	}, map[string]any{
		"action_data": action,
	})
	if err != nil {
		return fmt.Errorf("failed to update alert action: %w", err)
	}
	return requireRows(body)
}

func (r *alertRepository) DeleteAlert(ctx context.Context, userID, id string) error {
	body, err := r.client.DeleteWhere(ctx, "alerts", supabase.Filter{
		"id":      "eq." + id,
		"user_id": "eq." + userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return requireRows(body)
}

// NewSupabaseStore wires every Supabase-backed repository.
func NewSupabaseStore(client *supabase.Client) *Store {
	return &Store{
		Activities:   NewActivityRepository(client),
		Categories:   NewCategoryRepository(client),
		Patterns:     NewPatternRepository(client),
		Correlations: NewCorrelationRepository(client),
		Suggestions:  NewSuggestionRepository(client),
		Alerts:       NewAlertRepository(client),
	}
}
