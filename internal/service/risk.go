package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

type riskService struct {
	activities repository.ActivityRepository
	categories repository.CategoryRepository
	alerts     repository.AlertRepository
	policy     analytics.Policy
	now        func() time.Time
}

// NewRiskService creates a new risk service
func NewRiskService(store *repository.Store, policy analytics.Policy, opts ...Option) RiskService {
	o := buildOptions(opts)
	return &riskService{
		activities: store.Activities,
		categories: store.Categories,
		alerts:     store.Alerts,
		policy:     policy.Normalize(),
		now:        o.now,
	}
}

func (s *riskService) GetSummary(ctx context.Context, userID string) (*models.RiskSummary, error) {
	now := s.now()
	snap, err := loadSnapshot(ctx, s.activities, s.categories, userID, now, s.policy)
	if err != nil {
		return nil, err
	}

	predictions, errs := analytics.AssessAll(snap.series, snap.categories, s.policy)
	for _, err := range errs {
		logger.Ctx(ctx).Warn("risk assessment failed", logger.Err(err))
	}
	summary := analytics.SummarizeRisk(predictions, now)
	return &summary, nil
}

func (s *riskService) ListAlerts(ctx context.Context, userID string, filter models.AlertFilter) ([]models.Alert, error) {
	alerts, err := s.alerts.ListAlerts(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return alerts, nil
}

func (s *riskService) MarkAlertRead(ctx context.Context, userID, id string) (*models.Alert, error) {
	return s.updateAlert(ctx, userID, id,
		func(a models.Alert) (models.Alert, bool) {
			return analytics.MarkRead(a, s.now())
		},
		func(a models.Alert) error {
			return s.alerts.MarkAlertRead(ctx, userID, id, *a.ReadAt)
		},
	)
}

// DismissAlert deletes the alert. A later run may raise an equivalent one.
func (s *riskService) DismissAlert(ctx context.Context, userID, id string) error {
	if err := s.alerts.DeleteAlert(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to dismiss alert: %w", err)
	}
	return nil
}

func (s *riskService) TriggerIntervention(ctx context.Context, userID, id string) (*models.Alert, error) {
	alert, err := s.updateAlert(ctx, userID, id,
		func(a models.Alert) (models.Alert, bool) {
			return analytics.TriggerIntervention(a, s.now(), s.policy)
		},
		func(a models.Alert) error {
			return s.alerts.UpdateAlertAction(ctx, userID, id, a.ActionData)
		},
	)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("intervention triggered",
		logger.String("alert_id", alert.ID),
		logger.Int("steps", len(alert.ActionData.InterventionSteps)),
	)
	return alert, nil
}

// updateAlert applies transition and, when it changed something, persists
// only the columns that transition owns through write. Concurrent
// transitions on other columns are never overwritten.
func (s *riskService) updateAlert(ctx context.Context, userID, id string, transition func(models.Alert) (models.Alert, bool), write func(models.Alert) error) (*models.Alert, error) {
	current, err := s.alerts.GetAlert(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	next, changed := transition(*current)
	if !changed {
		return current, nil
	}
	if err := write(next); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return &next, nil
}
