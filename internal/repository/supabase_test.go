package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/pkg/supabase"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSupabaseStore(supabase.NewClient(srv.URL, "key"))
}

func TestCreateAlertConflict(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"alerts_one_unread\""}`))
	})

	err := store.Alerts.CreateAlert(context.Background(), models.Alert{ID: "a1", UserID: "u1", CategoryID: "run"})

	var conflict *analytics.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, analytics.ErrConflict) {
		t.Error("expected errors.Is(err, ErrConflict)")
	}
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if err := store.Alerts.DeleteAlert(context.Background(), "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteAlert err = %v, want ErrNotFound", err)
	}
	if err := store.Suggestions.DeleteSuggestion(context.Background(), "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSuggestion err = %v, want ErrNotFound", err)
	}
}

func TestGetPatternModelMissing(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := store.Patterns.GetPatternModel(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPatternModelDecodesSnapshot(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_id"); got != "eq.u1" {
			t.Errorf("user_id = %q", got)
		}
		_, _ = w.Write([]byte(`[{"user_id":"u1","last_analyzed":"2026-03-18T20:00:00Z","data":{"user_id":"u1","window_days":90,"last_analyzed":"2026-03-18T20:00:00Z"}}]`))
	})

	model, err := store.Patterns.GetPatternModel(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetPatternModel: %v", err)
	}
	if model.WindowDays != 90 || model.UserID != "u1" {
		t.Errorf("model = %+v", model)
	}
}

func TestListActiveUserIDsDeduplicates(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("select"); got != "user_id" {
			t.Errorf("select = %q", got)
		}
		_, _ = w.Write([]byte(`[{"user_id":"b"},{"user_id":"a"},{"user_id":"b"}]`))
	})

	ids, err := store.Activities.ListActiveUserIDs(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ListActiveUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v", ids)
	}
}

func TestListSuggestionsFilters(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("read") != "eq.false" || q.Get("type") != "eq.weekly_habit" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`[{"id":"s1","user_id":"u1","type":"weekly_habit"}]`))
	})

	unread := false
	got, err := store.Suggestions.ListSuggestions(context.Background(), "u1", models.SuggestionFilter{Read: &unread, Type: models.SuggestionWeeklyHabit})
	if err != nil {
		t.Fatalf("ListSuggestions: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Errorf("got = %+v", got)
	}
}
