package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

type patternService struct {
	patterns    repository.PatternRepository
	categories  repository.CategoryRepository
	suggestions repository.SuggestionRepository
	policy      analytics.Policy
	now         func() time.Time
}

// NewPatternService creates a new pattern service
func NewPatternService(store *repository.Store, policy analytics.Policy, opts ...Option) PatternService {
	o := buildOptions(opts)
	return &patternService{
		patterns:    store.Patterns,
		categories:  store.Categories,
		suggestions: store.Suggestions,
		policy:      policy.Normalize(),
		now:         o.now,
	}
}

func (s *patternService) GetPatterns(ctx context.Context, userID string) (*models.PatternModel, error) {
	model, err := s.patterns.GetPatternModel(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern model: %w", err)
	}
	return model, nil
}

func (s *patternService) GetInsights(ctx context.Context, userID string) ([]models.PatternInsight, error) {
	model, err := s.patterns.GetPatternModel(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return []models.PatternInsight{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern model: %w", err)
	}

	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return analytics.PatternInsights(*model, categories), nil
}

func (s *patternService) GetStrength(ctx context.Context, userID string) (*models.PatternStrength, error) {
	model, err := s.patterns.GetPatternModel(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.PatternStrength{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern model: %w", err)
	}
	return &models.PatternStrength{
		Score:        analytics.OverallStrength(*model, s.policy),
		LastAnalyzed: model.LastAnalyzed,
	}, nil
}

// ListSuggestions returns the user's unexpired suggestions matching filter.
func (s *patternService) ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	all, err := s.suggestions.ListSuggestions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	now := s.now()
	live := make([]models.Suggestion, 0, len(all))
	for _, sug := range all {
		if !sug.Expired(now) {
			live = append(live, sug)
		}
	}
	return live, nil
}

func (s *patternService) MarkSuggestionRead(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	return s.updateSuggestion(ctx, userID, id, func(sug *models.Suggestion) bool {
		if sug.Read {
			return false
		}
		sug.Read = true
		return true
	})
}

func (s *patternService) ActOnSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	return s.updateSuggestion(ctx, userID, id, func(sug *models.Suggestion) bool {
		if sug.Read && sug.ActedOn {
			return false
		}
		sug.Read = true
		sug.ActedOn = true
		return true
	})
}

// DismissSuggestion deletes the suggestion.
func (s *patternService) DismissSuggestion(ctx context.Context, userID, id string) error {
	if err := s.suggestions.DeleteSuggestion(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to dismiss suggestion: %w", err)
	}
	return nil
}

// updateSuggestion applies mutate and writes only when it reports a change.
// Expired suggestions are inert and reported as not found.
func (s *patternService) updateSuggestion(ctx context.Context, userID, id string, mutate func(*models.Suggestion) bool) (*models.Suggestion, error) {
	sug, err := s.suggestions.GetSuggestion(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	if sug.Expired(s.now()) {
		return nil, fmt.Errorf("suggestion %s expired: %w", id, repository.ErrNotFound)
	}
	if !mutate(sug) {
		return sug, nil
	}
	if err := s.suggestions.UpdateSuggestion(ctx, *sug); err != nil {
		return nil, fmt.Errorf("failed to update suggestion: %w", err)
	}
	return sug, nil
}
