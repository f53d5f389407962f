package repository

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist for the
// user.
var ErrNotFound = errors.New("not found")

// ActivityRepository reads logged activities. The analytics engine never
// writes them.
type ActivityRepository interface {
	ListActivities(ctx context.Context, userID string, since time.Time) ([]models.ActivityRecord, error)
	// ListActiveUserIDs returns every user with an activity at or after since.
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)
}

// CategoryRepository reads a user's life categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
}

// PatternRepository stores the latest pattern model per user. Saving fully
// replaces the previous model.
type PatternRepository interface {
	SavePatternModel(ctx context.Context, model models.PatternModel) error
	GetPatternModel(ctx context.Context, userID string) (*models.PatternModel, error)
}

// CorrelationRepository stores the latest correlation analysis per user.
type CorrelationRepository interface {
	SaveCorrelationAnalysis(ctx context.Context, analysis models.CorrelationAnalysis) error
	GetCorrelationAnalysis(ctx context.Context, userID string) (*models.CorrelationAnalysis, error)
}

type SuggestionRepository interface {
	ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error)
	InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) error
	GetSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error)
	UpdateSuggestion(ctx context.Context, suggestion models.Suggestion) error
	DeleteSuggestion(ctx context.Context, userID, id string) error
}

// AlertRepository stores alerts. CreateAlert returns an
// *analytics.ConflictError when an unread alert of the same type and
// category already exists.
type AlertRepository interface {
	ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error)
	CreateAlert(ctx context.Context, alert models.Alert) error
	GetAlert(ctx context.Context, userID, id string) (*models.Alert, error)
	// MarkAlertRead sets read and read_at and leaves action_data alone.
	MarkAlertRead(ctx context.Context, userID, id string, readAt time.Time) error
	// UpdateAlertAction replaces action_data and leaves the read state alone.
	UpdateAlertAction(ctx context.Context, userID, id string, action models.AlertActionData) error
	DeleteAlert(ctx context.Context, userID, id string) error
}

// Store bundles one implementation of every repository.
type Store struct {
	Activities   ActivityRepository
	Categories   CategoryRepository
	Patterns     PatternRepository
	Correlations CorrelationRepository
	Suggestions  SuggestionRepository
	Alerts       AlertRepository
}
