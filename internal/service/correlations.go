package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

type correlationService struct {
	correlations repository.CorrelationRepository
	categories   repository.CategoryRepository
}

// NewCorrelationService creates a new correlation service
func NewCorrelationService(store *repository.Store) CorrelationService {
	return &correlationService{
		correlations: store.Correlations,
		categories:   store.Categories,
	}
}

// latest returns the stored analysis, or an empty one for users that were
// never analyzed.
func (s *correlationService) latest(ctx context.Context, userID string) (*models.CorrelationAnalysis, error) {
	analysis, err := s.correlations.GetCorrelationAnalysis(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.CorrelationAnalysis{
			UserID:       userID,
			Correlations: []models.Correlation{},
			Insights:     []models.CorrelationInsight{},
			Predictions:  []models.Prediction{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correlation analysis: %w", err)
	}
	return analysis, nil
}

func (s *correlationService) GetSummary(ctx context.Context, userID string) (*models.CorrelationSummary, error) {
	analysis, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(*analysis)
	return &summary, nil
}

func (s *correlationService) GetMatrix(ctx context.Context, userID string) (*models.CorrelationMatrix, error) {
	analysis, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	matrix := analytics.BuildMatrix(categories, analysis.Correlations)
	return &matrix, nil
}

func (s *correlationService) GetInsights(ctx context.Context, userID string) ([]models.CorrelationInsight, error) {
	analysis, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if analysis.Insights == nil {
		return []models.CorrelationInsight{}, nil
	}
	return analysis.Insights, nil
}

func (s *correlationService) GetPredictions(ctx context.Context, userID string) ([]models.Prediction, error) {
	analysis, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if analysis.Predictions == nil {
		return []models.Prediction{}, nil
	}
	return analysis.Predictions, nil
}
