package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

type categoryRepository struct {
	client *supabase.Client
}

func NewCategoryRepository(client *supabase.Client) CategoryRepository {
	return &categoryRepository{client: client}
}

func (r *categoryRepository) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	body, err := r.client.Query(ctx, "categories", supabase.Filter{
		"select":  "*",
		"user_id": "eq." + userID,
		"order":   "name.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	return categories, nil
}
