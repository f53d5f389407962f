package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

// mockStore is an in-memory implementation of every repository for one
// process. The alerts table enforces the same one-unread-alert index as the
// real schema.
type mockStore struct {
	mu sync.Mutex

	activities   []models.ActivityRecord
	categories   []models.Category
	patterns     map[string]models.PatternModel
	correlations map[string]models.CorrelationAnalysis
	suggestions  map[string]models.Suggestion
	alerts       map[string]models.Alert

	activitiesErr  error
	savePatternErr error
	// raceAlerts makes CreateAlert fail as if a concurrent run won.
	raceAlerts        bool
	panicCorrelations bool
	// beforeAlertAction runs inside UpdateAlertAction, under the lock, to
	// simulate a write that lands between the service's read and its write.
	beforeAlertAction func(alerts map[string]models.Alert)

	listActivitiesCalls   int
	updateSuggestionCalls int
	updateAlertCalls      int
}

func newMockStore() *mockStore {
	return &mockStore{
		patterns:     make(map[string]models.PatternModel),
		correlations: make(map[string]models.CorrelationAnalysis),
		suggestions:  make(map[string]models.Suggestion),
		alerts:       make(map[string]models.Alert),
	}
}

func (m *mockStore) store() *repository.Store {
	return &repository.Store{
		Activities:   m,
		Categories:   m,
		Patterns:     m,
		Correlations: m,
		Suggestions:  m,
		Alerts:       m,
	}
}

func (m *mockStore) ListActivities(ctx context.Context, userID string, since time.Time) ([]models.ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listActivitiesCalls++
	if m.activitiesErr != nil {
		return nil, m.activitiesErr
	}
	var out []models.ActivityRecord
	for _, a := range m.activities {
		if a.UserID == userID && !a.StartTime.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, a := range m.activities {
		if !a.StartTime.Before(since) && !seen[a.UserID] {
			seen[a.UserID] = true
			out = append(out, a.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockStore) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) SavePatternModel(ctx context.Context, model models.PatternModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savePatternErr != nil {
		return m.savePatternErr
	}
	m.patterns[model.UserID] = model
	return nil
}

func (m *mockStore) GetPatternModel(ctx context.Context, userID string) (*models.PatternModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	model, ok := m.patterns[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model, nil
}

func (m *mockStore) SaveCorrelationAnalysis(ctx context.Context, analysis models.CorrelationAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicCorrelations {
		panic("corrupt correlation row")
	}
	m.correlations[analysis.UserID] = analysis
	return nil
}

func (m *mockStore) GetCorrelationAnalysis(ctx context.Context, userID string) (*models.CorrelationAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	analysis, ok := m.correlations[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &analysis, nil
}

func (m *mockStore) ListSuggestions(ctx context.Context, userID string, filter models.SuggestionFilter) ([]models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Suggestion
	for _, s := range m.suggestions {
		if s.UserID != userID {
			continue
		}
		if filter.Read != nil && s.Read != *filter.Read {
			continue
		}
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) InsertSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range suggestions {
		m.suggestions[s.ID] = s
	}
	return nil
}

func (m *mockStore) GetSuggestion(ctx context.Context, userID, id string) (*models.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *mockStore) UpdateSuggestion(ctx context.Context, suggestion models.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateSuggestionCalls++
	if _, ok := m.suggestions[suggestion.ID]; !ok {
		return repository.ErrNotFound
	}
	m.suggestions[suggestion.ID] = suggestion
	return nil
}

func (m *mockStore) DeleteSuggestion(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[id]
	if !ok || s.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.suggestions, id)
	return nil
}

func (m *mockStore) ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for _, a := range m.alerts {
		if a.UserID != userID {
			continue
		}
		if filter.UnreadOnly && a.Read {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.CategoryID != "" && a.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CreateAlert(ctx context.Context, alert models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceAlerts {
		return &analytics.ConflictError{Resource: "alert", ID: alert.ID}
	}
	for _, a := range m.alerts {
		if a.UserID == alert.UserID && !a.Read && a.Type == alert.Type && a.CategoryID == alert.CategoryID {
			return &analytics.ConflictError{Resource: "alert", ID: alert.ID}
		}
	}
	m.alerts[alert.ID] = alert
	return nil
}

func (m *mockStore) GetAlert(ctx context.Context, userID, id string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *mockStore) MarkAlertRead(ctx context.Context, userID, id string, readAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateAlertCalls++
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	if !a.Read {
		a.Read = true
		a.ReadAt = &readAt
		m.alerts[id] = a
	}
	return nil
}

func (m *mockStore) UpdateAlertAction(ctx context.Context, userID, id string, action models.AlertActionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateAlertCalls++
	if m.beforeAlertAction != nil {
		m.beforeAlertAction(m.alerts)
	}
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	a.ActionData = action
	m.alerts[id] = a
	return nil
}

func (m *mockStore) DeleteAlert(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.alerts, id)
	return nil
}

// recordingPublisher captures published alerts.
type recordingPublisher struct {
	mu        sync.Mutex
	published []models.Alert
	err       error
}

func (p *recordingPublisher) PublishAlertCreated(ctx context.Context, alert models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, alert)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// fixtures

const testUser = "user-1"

// testNow is a Wednesday evening.
var testNow = time.Date(2026, time.March, 18, 20, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dayStart(daysAgo int) time.Time {
	y, mo, d := testNow.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
}

// daily logs one activity a day at hour for every day in [fromAgo, toAgo].
func daily(categoryID string, fromAgo, toAgo, hour int, minutes float64) []models.ActivityRecord {
	var out []models.ActivityRecord
	for d := fromAgo; d >= toAgo; d-- {
		out = append(out, models.ActivityRecord{
			ID:              fmt.Sprintf("%s-%d", categoryID, d),
			UserID:          testUser,
			CategoryID:      categoryID,
			Description:     categoryID,
			StartTime:       dayStart(d).Add(time.Duration(hour) * time.Hour),
			DurationMinutes: minutes,
		})
	}
	return out
}

func testCategory(id, name string) models.Category {
	return models.Category{ID: id, UserID: testUser, Name: name, Kind: "physical_health"}
}

var errBoom = errors.New("boom")
