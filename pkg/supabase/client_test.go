package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuerySendsFilterAndKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/activities" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "eq.u1" {
			t.Errorf("user_id filter = %q", got)
		}
		if r.Header.Get("apikey") != "key" || r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing service key headers: %v", r.Header)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	body, err := c.Query(context.Background(), "activities", Filter{"user_id": "eq.u1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("body = %q", body)
	}
}

func TestUpsertUsesMergeDuplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("on_conflict"); got != "user_id" {
			t.Errorf("on_conflict = %q", got)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation,resolution=merge-duplicates" {
			t.Errorf("Prefer = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		if string(data) != `{"user_id":"u1"}` {
			t.Errorf("payload = %s", data)
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	if _, err := c.Upsert(context.Background(), "pattern_models", map[string]string{"user_id": "u1"}, "user_id"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestConflictIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.Insert(context.Background(), "alerts", map[string]string{"id": "a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsConflict(err) {
		t.Errorf("IsConflict(%v) = false", err)
	}
}

func TestVerifyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.c"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	user, err := c.VerifyToken(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user id = %q", user.ID)
	}

	if _, err := c.VerifyToken(context.Background(), "bad"); err == nil {
		t.Error("expected error for bad token")
	}
}
