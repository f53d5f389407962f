package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

func seedSuggestion(m *mockStore, id string, expiresIn time.Duration) models.Suggestion {
	s := models.Suggestion{
		ID:         id,
		UserID:     testUser,
		CategoryID: "run",
		Type:       models.SuggestionWeeklyHabit,
		Title:      "Running day",
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Timing:     models.TimingWeekly,
		ActionType: models.ActionReminder,
		CreatedAt:  testNow.Add(-time.Hour),
		ExpiresAt:  testNow.Add(expiresIn),
	}
	m.suggestions[id] = s
	return s
}

func newTestPatterns(m *mockStore) PatternService {
	return NewPatternService(m.store(), analytics.DefaultPolicy(), WithClock(fixedClock))
}

func TestListSuggestions_HidesExpired(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "live", time.Hour)
	seedSuggestion(m, "stale", -time.Minute)
	seedSuggestion(m, "edge", 0)

	got, err := newTestPatterns(m).ListSuggestions(context.Background(), testUser, models.SuggestionFilter{})
	if err != nil {
		t.Fatalf("ListSuggestions() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "live" {
		t.Errorf("got %+v, want only the live suggestion", got)
	}
}

func TestMarkSuggestionRead_Idempotent(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "s1", time.Hour)
	svc := newTestPatterns(m)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.MarkSuggestionRead(ctx, testUser, "s1")
		if err != nil {
			t.Fatalf("MarkSuggestionRead() error = %v", err)
		}
		if !got.Read || got.ActedOn {
			t.Errorf("suggestion = read %v acted %v", got.Read, got.ActedOn)
		}
	}
	if m.updateSuggestionCalls != 1 {
		t.Errorf("UpdateSuggestion called %d times, want 1", m.updateSuggestionCalls)
	}
}

func TestActOnSuggestion_MarksReadToo(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "s1", time.Hour)

	got, err := newTestPatterns(m).ActOnSuggestion(context.Background(), testUser, "s1")
	if err != nil {
		t.Fatalf("ActOnSuggestion() error = %v", err)
	}
	if !got.Read || !got.ActedOn {
		t.Errorf("suggestion = read %v acted %v, want both", got.Read, got.ActedOn)
	}
	if stored := m.suggestions["s1"]; !stored.ActedOn {
		t.Error("acted_on was not persisted")
	}
}

func TestSuggestionLookups_OtherUserIsNotFound(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "s1", time.Hour)
	svc := newTestPatterns(m)
	ctx := context.Background()

	if _, err := svc.MarkSuggestionRead(ctx, "someone-else", "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("MarkSuggestionRead() error = %v, want ErrNotFound", err)
	}
	if err := svc.DismissSuggestion(ctx, "someone-else", "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("DismissSuggestion() error = %v, want ErrNotFound", err)
	}
}

func TestSuggestionMutations_ExpiredIsNotFound(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "s1", -time.Minute)
	svc := newTestPatterns(m)
	ctx := context.Background()

	if _, err := svc.MarkSuggestionRead(ctx, testUser, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("MarkSuggestionRead() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.ActOnSuggestion(ctx, testUser, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ActOnSuggestion() error = %v, want ErrNotFound", err)
	}
	if m.updateSuggestionCalls != 0 {
		t.Errorf("UpdateSuggestion called %d times, want 0", m.updateSuggestionCalls)
	}
	if stored := m.suggestions["s1"]; stored.Read || stored.ActedOn {
		t.Errorf("expired suggestion changed: %+v", stored)
	}
}

func TestDismissSuggestion_Deletes(t *testing.T) {
	m := newMockStore()
	seedSuggestion(m, "s1", time.Hour)
	svc := newTestPatterns(m)
	ctx := context.Background()

	if err := svc.DismissSuggestion(ctx, testUser, "s1"); err != nil {
		t.Fatalf("DismissSuggestion() error = %v", err)
	}
	if _, ok := m.suggestions["s1"]; ok {
		t.Error("suggestion still stored")
	}
	if err := svc.DismissSuggestion(ctx, testUser, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second dismiss error = %v, want ErrNotFound", err)
	}
}

func TestPatternQueries_BeforeFirstRun(t *testing.T) {
	svc := newTestPatterns(newMockStore())
	ctx := context.Background()

	if _, err := svc.GetPatterns(ctx, testUser); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetPatterns() error = %v, want ErrNotFound", err)
	}
	insights, err := svc.GetInsights(ctx, testUser)
	if err != nil || len(insights) != 0 {
		t.Errorf("GetInsights() = %v, %v, want empty", insights, err)
	}
	strength, err := svc.GetStrength(ctx, testUser)
	if err != nil || strength.Score != 0 {
		t.Errorf("GetStrength() = %+v, %v, want zero score", strength, err)
	}
}

func TestPatternQueries_AfterRun(t *testing.T) {
	m := newMockStore()
	m.categories = []models.Category{testCategory("run", "Running")}
	m.activities = daily("run", 89, 0, 7, 60)
	ctx := context.Background()

	if _, err := newTestAnalysis(m, &recordingPublisher{}).Run(ctx, testUser, models.TriggerCLI); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	svc := newTestPatterns(m)
	model, err := svc.GetPatterns(ctx, testUser)
	if err != nil {
		t.Fatalf("GetPatterns() error = %v", err)
	}
	cp, ok := model.CategoryPatterns["run"]
	if !ok {
		t.Fatal("no category pattern for run")
	}
	if cp.Frequency != models.FrequencyDaily {
		t.Errorf("Frequency = %q, want daily", cp.Frequency)
	}

	strength, err := svc.GetStrength(ctx, testUser)
	if err != nil {
		t.Fatalf("GetStrength() error = %v", err)
	}
	if strength.Score <= 0 || strength.Score > 100 {
		t.Errorf("Score = %d, want within (0, 100]", strength.Score)
	}
	if !strength.LastAnalyzed.Equal(testNow) {
		t.Errorf("LastAnalyzed = %v", strength.LastAnalyzed)
	}
}
