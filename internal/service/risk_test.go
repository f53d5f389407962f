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

func newTestRisk(m *mockStore) RiskService {
	return NewRiskService(m.store(), analytics.DefaultPolicy(), WithClock(fixedClock))
}

func seedAlert(m *mockStore, id string) models.Alert {
	pred := models.RiskPrediction{
		CategoryID:      "run",
		CategoryName:    "Running",
		RiskScore:       62,
		RiskLevel:       models.RiskHigh,
		Recommendations: []string{"first", "second", "third", "fourth"},
		HasHistory:      true,
	}
	a := analytics.NewAlert(testUser, pred, testNow)
	a.ID = id
	m.alerts[id] = a
	return a
}

func TestRiskSummary_IsComputedFresh(t *testing.T) {
	m := newFadingStore()
	svc := newTestRisk(m)

	summary, err := svc.GetSummary(context.Background(), testUser)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if len(summary.Predictions) != 2 {
		t.Fatalf("predictions = %d, want 2", len(summary.Predictions))
	}
	if summary.HighestRisk == nil || summary.HighestRisk.CategoryID != "run" {
		t.Errorf("HighestRisk = %+v, want run", summary.HighestRisk)
	}
	if summary.AtRiskCount != 1 {
		t.Errorf("AtRiskCount = %d, want 1", summary.AtRiskCount)
	}
	if !summary.AssessedAt.Equal(testNow) {
		t.Errorf("AssessedAt = %v", summary.AssessedAt)
	}
	if len(m.alerts) != 0 {
		t.Error("summary must not create alerts")
	}
}

func TestRiskSummary_ReadFailure(t *testing.T) {
	m := newFadingStore()
	m.activitiesErr = errBoom

	if _, err := newTestRisk(m).GetSummary(context.Background(), testUser); !errors.Is(err, errBoom) {
		t.Errorf("GetSummary() error = %v, want errBoom", err)
	}
}

func TestMarkAlertRead_Idempotent(t *testing.T) {
	m := newMockStore()
	seedAlert(m, "a1")
	svc := newTestRisk(m)
	ctx := context.Background()

	first, err := svc.MarkAlertRead(ctx, testUser, "a1")
	if err != nil {
		t.Fatalf("MarkAlertRead() error = %v", err)
	}
	if !first.Read || first.ReadAt == nil || !first.ReadAt.Equal(testNow) {
		t.Errorf("alert = read %v at %v", first.Read, first.ReadAt)
	}

	second, err := svc.MarkAlertRead(ctx, testUser, "a1")
	if err != nil {
		t.Fatalf("MarkAlertRead() error = %v", err)
	}
	if !second.Read {
		t.Error("second read flipped the alert back")
	}
	if m.updateAlertCalls != 1 {
		t.Errorf("alert writes = %d, want 1", m.updateAlertCalls)
	}
}

func TestTriggerIntervention_OnceWithThreeSteps(t *testing.T) {
	m := newMockStore()
	seedAlert(m, "a1")
	svc := newTestRisk(m)
	ctx := context.Background()

	got, err := svc.TriggerIntervention(ctx, testUser, "a1")
	if err != nil {
		t.Fatalf("TriggerIntervention() error = %v", err)
	}
	if !got.ActionData.InterventionTriggered {
		t.Fatal("InterventionTriggered = false")
	}
	want := []string{"first", "second", "third"}
	if len(got.ActionData.InterventionSteps) != len(want) {
		t.Fatalf("steps = %v, want %v", got.ActionData.InterventionSteps, want)
	}
	for i := range want {
		if got.ActionData.InterventionSteps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got.ActionData.InterventionSteps[i], want[i])
		}
	}

	if _, err := svc.TriggerIntervention(ctx, testUser, "a1"); err != nil {
		t.Fatalf("second TriggerIntervention() error = %v", err)
	}
	if m.updateAlertCalls != 1 {
		t.Errorf("alert writes = %d, want 1", m.updateAlertCalls)
	}
}

func TestTriggerIntervention_KeepsConcurrentRead(t *testing.T) {
	m := newMockStore()
	seedAlert(m, "a1")
	readAt := testNow.Add(-time.Minute)
	m.beforeAlertAction = func(alerts map[string]models.Alert) {
		a := alerts["a1"]
		a.Read = true
		a.ReadAt = &readAt
		alerts["a1"] = a
	}
	svc := newTestRisk(m)

	if _, err := svc.TriggerIntervention(context.Background(), testUser, "a1"); err != nil {
		t.Fatalf("TriggerIntervention() error = %v", err)
	}

	stored := m.alerts["a1"]
	if !stored.Read || stored.ReadAt == nil || !stored.ReadAt.Equal(readAt) {
		t.Errorf("read state = %v at %v, want read at %v", stored.Read, stored.ReadAt, readAt)
	}
	if !stored.ActionData.InterventionTriggered {
		t.Error("intervention was not stored")
	}
}

func TestDismissAlert(t *testing.T) {
	m := newMockStore()
	seedAlert(m, "a1")
	svc := newTestRisk(m)
	ctx := context.Background()

	if err := svc.DismissAlert(ctx, testUser, "a1"); err != nil {
		t.Fatalf("DismissAlert() error = %v", err)
	}
	if err := svc.DismissAlert(ctx, testUser, "a1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second DismissAlert() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.TriggerIntervention(ctx, testUser, "a1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("TriggerIntervention() on dismissed alert error = %v, want ErrNotFound", err)
	}
}

func TestListAlerts_NeverNil(t *testing.T) {
	alerts, err := newTestRisk(newMockStore()).ListAlerts(context.Background(), testUser, models.AlertFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if alerts == nil {
		t.Error("ListAlerts() = nil, want empty slice")
	}
}
