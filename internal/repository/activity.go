package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

type activityRepository struct {
	client *supabase.Client
}

// NewActivityRepository creates an activity repository backed by Supabase
func NewActivityRepository(client *supabase.Client) ActivityRepository {
	return &activityRepository{client: client}
}

func (r *activityRepository) ListActivities(ctx context.Context, userID string, since time.Time) ([]models.ActivityRecord, error) {
	body, err := r.client.Query(ctx, "activities", supabase.Filter{
		"select":     "*",
		"user_id":    "eq." + userID,
		"start_time": "gte." + since.UTC().Format(time.RFC3339),
		"order":      "start_time.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	var activities []models.ActivityRecord
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}
	return activities, nil
}

func (r *activityRepository) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	body, err := r.client.Query(ctx, "activities", supabase.Filter{
		"select":     "user_id",
		"start_time": "gte." + since.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active users: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0)
	for _, row := range rows {
		if row.UserID != "" && !seen[row.UserID] {
			seen[row.UserID] = true
			ids = append(ids, row.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
