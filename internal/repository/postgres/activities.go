package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type activityRepository struct {
	db *pgxpool.Pool
}

func (r *activityRepository) ListActivities(ctx context.Context, userID string, since time.Time) ([]models.ActivityRecord, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, category_id, description, start_time, end_time, duration_minutes
        FROM activities
        WHERE user_id = $1 AND start_time >= $2
        ORDER BY start_time, id
    `, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []models.ActivityRecord
	for rows.Next() {
		var a models.ActivityRecord
		var categoryID *string
		if err := rows.Scan(&a.ID, &a.UserID, &categoryID, &a.Description, &a.StartTime, &a.EndTime, &a.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if categoryID != nil {
			a.CategoryID = *categoryID
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *activityRepository) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT user_id FROM activities WHERE start_time >= $1 ORDER BY user_id
    `, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type categoryRepository struct {
	db *pgxpool.Pool
}

func (r *categoryRepository) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, name, kind, created_at
        FROM categories
        WHERE user_id = $1
        ORDER BY name, id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
