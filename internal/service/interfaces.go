package service

import (
	"context"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// AnalysisService runs the full analysis pipeline for one user
type AnalysisService interface {
	// Run fetches the user's window once, runs every engine and persists
	// their output. Runs for the same user are serialized; scheduler runs
	// return lock.ErrBusy instead of waiting.
	Run(ctx context.Context, userID string, trigger models.RunTrigger) (*models.RunReport, error)
}

// PatternService exposes the persisted pattern model and its suggestions
type PatternService interface {
	GetPatterns(ctx context.Context, userID string) (*models.PatternModel, error)
	GetInsights(ctx context.Context, userID string) ([]models.PatternInsight, error)
	GetStrength(ctx context.Context, userID string) (*models.PatternStrength, error)

	ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error)
	MarkSuggestionRead(ctx context.Context, userID, id string) (*models.Suggestion, error)
	ActOnSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error)
	DismissSuggestion(ctx context.Context, userID, id string) error
}

// CorrelationService exposes views over the persisted correlation analysis
type CorrelationService interface {
	GetSummary(ctx context.Context, userID string) (*models.CorrelationSummary, error)
	GetMatrix(ctx context.Context, userID string) (*models.CorrelationMatrix, error)
	GetInsights(ctx context.Context, userID string) ([]models.CorrelationInsight, error)
	GetPredictions(ctx context.Context, userID string) ([]models.Prediction, error)
}

// RiskService assesses degradation risk and manages the alerts it raises
type RiskService interface {
	// GetSummary assesses every category from current data. Nothing is
	// persisted.
	GetSummary(ctx context.Context, userID string) (*models.RiskSummary, error)

	ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error)
	MarkAlertRead(ctx context.Context, userID, id string) (*models.Alert, error)
	DismissAlert(ctx context.Context, userID, id string) error
	TriggerIntervention(ctx context.Context, userID, id string) (*models.Alert, error)
}
