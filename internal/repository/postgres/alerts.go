package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, user_id, type, category_id, title, message, action_data, read, read_at, created_at`

type alertRepository struct {
	db *pgxpool.Pool
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var a models.Alert
	var actionData []byte
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.CategoryID, &a.Title, &a.Message, &actionData, &a.Read, &a.ReadAt, &a.CreatedAt); err != nil {
		return a, err
	}
	if err := json.Unmarshal(actionData, &a.ActionData); err != nil {
		return a, fmt.Errorf("failed to decode action_data: %w", err)
	}
	return a, nil
}

func (r *alertRepository) ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1`
	args := []any{userID}
	if filter.UnreadOnly {
		query += " AND NOT read"
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *alertRepository) CreateAlert(ctx context.Context, alert models.Alert) error {
	actionData, err := json.Marshal(alert.ActionData)
	if err != nil {
		return fmt.Errorf("failed to encode action_data: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO alerts (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		alert.ID, alert.UserID, string(alert.Type), alert.CategoryID, alert.Title, alert.Message,
		actionData, alert.Read, alert.ReadAt, alert.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &analytics.ConflictError{Resource: "alert", ID: alert.CategoryID}
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *alertRepository) GetAlert(ctx context.Context, userID, id string) (*models.Alert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// MarkAlertRead keeps the first read_at when the alert is already read.
func (r *alertRepository) MarkAlertRead(ctx context.Context, userID, id string, readAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE alerts SET read = TRUE, read_at = COALESCE(read_at, $3) WHERE id = $1 AND user_id = $2`,
		id, userID, readAt)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	return affected(tag)
}

func (r *alertRepository) UpdateAlertAction(ctx context.Context, userID, id string, action models.AlertActionData) error {
	actionData, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to encode action_data: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE alerts SET action_data = $3 WHERE id = $1 AND user_id = $2`, id, userID, actionData)
	if err != nil {
		return fmt.Errorf("failed to update alert action: %w", err)
	}
	return affected(tag)
}

func (r *alertRepository) DeleteAlert(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return affected(tag)
}
