// Package memory is an in-process implementation of every repository. It
// backs the analyze command, where fixtures replace a real database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	activities   []models.ActivityRecord
	categories   []models.Category
	patterns     map[string]models.PatternModel
	correlations map[string]models.CorrelationAnalysis
	suggestions  map[string]models.Suggestion
	alerts       map[string]models.Alert
}

func New() *Store {
	return &Store{
		patterns:     make(map[string]models.PatternModel),
		correlations: make(map[string]models.CorrelationAnalysis),
		suggestions:  make(map[string]models.Suggestion),
		alerts:       make(map[string]models.Alert),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Activities:   s,
		Categories:   s,
		Patterns:     s,
		Correlations: s,
		Suggestions:  s,
		Alerts:       s,
	}
}

// AddActivities appends activity records.
func (s *Store) AddActivities(records ...models.ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, records...)
}

// AddCategories appends categories.
func (s *Store) AddCategories(categories ...models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, categories...)
}

func (s *Store) ListActivities(_ context.Context, userID string, since time.Time) ([]models.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivityRecord, 0)
	for _, a := range s.activities {
		if a.UserID == userID && !a.StartTime.Before(since) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) ListActiveUserIDs(_ context.Context, since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, a := range s.activities {
		if !a.StartTime.Before(since) && !seen[a.UserID] {
			seen[a.UserID] = true
			out = append(out, a.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) SavePatternModel(_ context.Context, model models.PatternModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[model.UserID] = model
	return nil
}

func (s *Store) GetPatternModel(_ context.Context, userID string) (*models.PatternModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	model, ok := s.patterns[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model, nil
}

func (s *Store) SaveCorrelationAnalysis(_ context.Context, analysis models.CorrelationAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.correlations[analysis.UserID] = analysis
	return nil
}

func (s *Store) GetCorrelationAnalysis(_ context.Context, userID string) (*models.CorrelationAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, ok := s.correlations[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &analysis, nil
}

func (s *Store) ListSuggestions(_ context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Suggestion, 0)
	for _, sug := range s.suggestions {
		if sug.UserID != userID ||
			(filter.Read != nil && sug.Read != *filter.Read) ||
			(filter.Type != "" && sug.Type != filter.Type) {
			continue
		}
		out = append(out, sug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertSuggestions(_ context.Context, suggestions []models.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sug := range suggestions {
		s.suggestions[sug.ID] = sug
	}
	return nil
}

func (s *Store) GetSuggestion(_ context.Context, userID, id string) (*models.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sug, ok := s.suggestions[id]
	if !ok || sug.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &sug, nil
}

func (s *Store) UpdateSuggestion(_ context.Context, suggestion models.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suggestions[suggestion.ID]; !ok {
		return repository.ErrNotFound
	}
	s.suggestions[suggestion.ID] = suggestion
	return nil
}

func (s *Store) DeleteSuggestion(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sug, ok := s.suggestions[id]
	if !ok || sug.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.suggestions, id)
	return nil
}

func (s *Store) ListAlerts(_ context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, 0)
	for _, a := range s.alerts {
		if a.UserID != userID ||
			(filter.UnreadOnly && a.Read) ||
			(filter.Type != "" && a.Type != filter.Type) ||
			(filter.CategoryID != "" && a.CategoryID != filter.CategoryID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateAlert enforces one unread alert per user, type and category.
func (s *Store) CreateAlert(_ context.Context, alert models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.UserID == alert.UserID && !a.Read && a.Type == alert.Type && a.CategoryID == alert.CategoryID {
			return &analytics.ConflictError{Resource: "alert", ID: a.ID}
		}
	}
	s.alerts[alert.ID] = alert
	return nil
}

func (s *Store) GetAlert(_ context.Context, userID, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) MarkAlertRead(_ context.Context, userID, id string, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	if !a.Read {
		a.Read = true
		a.ReadAt = &readAt
		s.alerts[id] = a
	}
	return nil
}

func (s *Store) UpdateAlertAction(_ context.Context, userID, id string, action models.AlertActionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	a.ActionData = action
	s.alerts[id] = a
	return nil
}

func (s *Store) DeleteAlert(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.alerts, id)
	return nil
}
