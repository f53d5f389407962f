package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/middleware"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository/memory"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser  = "user-1"
	testToken = "good-token"
)

var testNow = time.Date(2026, 3, 18, 20, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct{}

func (stubVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if token != testToken {
		return "", errors.New("invalid token")
	}
	return testUser, nil
}

type busyAnalysis struct{}

func (busyAnalysis) Run(context.Context, string, models.RunTrigger) (*models.RunReport, error) {
	return nil, lock.ErrBusy
}

// brokenAlerts fails every read.
type brokenAlerts struct {
	repository.AlertRepository
}

func (brokenAlerts) ListAlerts(context.Context, string, models.AlertFilter) ([]models.Alert, error) {
	return nil, errors.New("connection refused")
}

// seededStore holds a running habit that stopped 25 days ago next to a daily
// reading habit.
func seededStore() *repository.Store {
	mem := memory.New()
	mem.AddCategories(
		models.Category{ID: "run", UserID: testUser, Name: "Running"},
		models.Category{ID: "read", UserID: testUser, Name: "Reading"},
	)
	today := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	for ago := 89; ago >= 0; ago-- {
		day := today.AddDate(0, 0, -ago)
		if ago >= 25 {
			mem.AddActivities(models.ActivityRecord{
				ID: uuid.NewString(), UserID: testUser, CategoryID: "run",
				StartTime: day.Add(7 * time.Hour), DurationMinutes: 30,
			})
		}
		mem.AddActivities(models.ActivityRecord{
			ID: uuid.NewString(), UserID: testUser, CategoryID: "read",
			StartTime: day.Add(8 * time.Hour), DurationMinutes: 45,
		})
	}
	return mem.Repositories()
}

func newServices(store *repository.Store) Services {
	policy := analytics.DefaultPolicy()
	clock := service.WithClock(func() time.Time { return testNow })
	return Services{
		Analysis:     service.NewAnalysisService(store, lock.NewKeyedMutex(), nil, policy, clock),
		Patterns:     service.NewPatternService(store, policy, clock),
		Correlations: service.NewCorrelationService(store),
		Risk:         service.NewRiskService(store, policy, clock),
	}
}

func newTestRouter(svc Services, limiter *middleware.RateLimiter) *gin.Engine {
	return NewRouter(RouterConfig{
		Env:        "test",
		Logger:     logger.New(logger.Config{Level: logger.LevelError, Output: io.Discard}),
		Verifier:   stubVerifier{},
		RunLimiter: limiter,
	}, svc)
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type problem struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
}

type alertList struct {
	Alerts []models.Alert `json:"alerts"`
	Count  int            `json:"count"`
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(newServices(memory.New().Repositories()), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "habitpulse_")
}

func TestRequiresAuthentication(t *testing.T) {
	router := newTestRouter(newServices(memory.New().Repositories()), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/patterns", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQueriesBeforeFirstRun(t *testing.T) {
	router := newTestRouter(newServices(memory.New().Repositories()), nil)

	w := do(t, router, http.MethodGet, "/api/v1/patterns")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	for _, path := range []string{
		"/api/v1/patterns/insights",
		"/api/v1/patterns/strength",
		"/api/v1/suggestions",
		"/api/v1/correlations/summary",
		"/api/v1/correlations/matrix",
		"/api/v1/correlations/insights",
		"/api/v1/correlations/predictions",
		"/api/v1/risk/summary",
		"/api/v1/alerts",
	} {
		w := do(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	alerts := decode[alertList](t, do(t, router, http.MethodGet, "/api/v1/alerts"))
	assert.NotNil(t, alerts.Alerts)
	assert.Zero(t, alerts.Count)
}

func TestRunThenAlertLifecycle(t *testing.T) {
	router := newTestRouter(newServices(seededStore()), nil)

	w := do(t, router, http.MethodPost, "/api/v1/analysis/run")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[models.RunReport](t, w)
	assert.Equal(t, models.TriggerAPI, report.Trigger)
	assert.Equal(t, 1, report.AlertsCreated)
	assert.Empty(t, report.FailedStages)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/patterns").Code)

	alerts := decode[alertList](t, do(t, router, http.MethodGet, "/api/v1/alerts?unread=true"))
	require.Equal(t, 1, alerts.Count)
	id := alerts.Alerts[0].ID
	assert.Equal(t, "run", alerts.Alerts[0].CategoryID)

	w = do(t, router, http.MethodPost, "/api/v1/alerts/"+id+"/intervention")
	require.Equal(t, http.StatusOK, w.Code)
	alert := decode[models.Alert](t, w)
	assert.True(t, alert.ActionData.InterventionTriggered)
	assert.NotEmpty(t, alert.ActionData.InterventionSteps)

	w = do(t, router, http.MethodPost, "/api/v1/alerts/"+id+"/read")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Alert](t, w).Read)

	alerts = decode[alertList](t, do(t, router, http.MethodGet, "/api/v1/alerts?unread=true"))
	assert.Zero(t, alerts.Count)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/v1/alerts/"+id).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/v1/alerts/"+id).Code)
}

func TestInvalidParameters(t *testing.T) {
	router := newTestRouter(newServices(memory.New().Repositories()), nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/v1/alerts/not-a-uuid/read", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/suggestions/42", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/suggestions?read=maybe", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/suggestions?type=bogus", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/alerts?unread=2", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/alerts/" + uuid.NewString() + "/read", http.StatusNotFound},
		{http.MethodPost, "/api/v1/suggestions/" + uuid.NewString() + "/act", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, tt.want, decode[problem](t, w).Status)
		})
	}
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	store := memory.New().Repositories()
	store.Alerts = brokenAlerts{store.Alerts}
	router := newTestRouter(newServices(store), nil)

	w := do(t, router, http.MethodGet, "/api/v1/alerts")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.False(t, strings.Contains(w.Body.String(), "connection refused"), "store error leaked: %s", w.Body.String())
}

func TestRunWhileBusyIsConflict(t *testing.T) {
	svc := newServices(memory.New().Repositories())
	svc.Analysis = busyAnalysis{}
	router := newTestRouter(svc, nil)

	w := do(t, router, http.MethodPost, "/api/v1/analysis/run")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRunIsRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, "handlers_test")
	router := newTestRouter(newServices(memory.New().Repositories()), limiter)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/analysis/run").Code)

	w := do(t, router, http.MethodPost, "/api/v1/analysis/run")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/alerts").Code)
}
