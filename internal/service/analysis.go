package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/events"
	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/metrics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/google/uuid"
)

// Stage names, used as metric labels and in RunReport.FailedStages.
const (
	StagePatterns     = "patterns"
	StageSuggestions  = "suggestions"
	StageCorrelations = "correlations"
	StageRisk         = "risk"
)

type analysisService struct {
	store     *repository.Store
	locker    lock.UserLocker
	publisher events.Publisher
	policy    analytics.Policy
	now       func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(store *repository.Store, locker lock.UserLocker, publisher events.Publisher, policy analytics.Policy, opts ...Option) AnalysisService {
	o := buildOptions(opts)
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &analysisService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		policy:    policy.Normalize(),
		now:       o.now,
	}
}

func (s *analysisService) Run(ctx context.Context, userID string, trigger models.RunTrigger) (*models.RunReport, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(logger.WithUserID(ctx, userID), runID)
	log := logger.Ctx(ctx).With(logger.String("trigger", string(trigger)))

	unlock, err := s.acquire(ctx, userID, trigger)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			metrics.AnalysisRuns.WithLabelValues(string(trigger), "busy").Inc()
			log.Info("analysis already running, skipping")
		}
		return nil, err
	}
	defer unlock()

	now := s.now()
	report := &models.RunReport{
		RunID:      runID,
		UserID:     userID,
		Trigger:    trigger,
		StartedAt:  now,
		WindowDays: s.policy.WindowDays,
	}

	start := time.Now()
	snap, err := loadSnapshot(ctx, s.store.Activities, s.store.Categories, userID, now, s.policy)
	metrics.ObserveStage("load", start)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues(string(trigger), "failed").Inc()
		log.Error("failed to load analysis snapshot", logger.Err(err))
		return nil, err
	}
	report.ActivitiesAnalyzed = len(snap.activities)
	report.SkippedRecords = len(snap.series.Skipped)

	stages := []struct {
		name string
		fn   func(context.Context, *snapshot, *models.RunReport) error
	}{
		{StagePatterns, s.runPatterns},
		{StageCorrelations, s.runCorrelations},
		{StageRisk, s.runRisk},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			metrics.AnalysisRuns.WithLabelValues(string(trigger), "canceled").Inc()
			log.Warn("analysis canceled", logger.String("next_stage", st.name))
			return report, err
		}
		s.runStage(ctx, st.name, func() error { return st.fn(ctx, snap, report) }, report)
	}

	report.FinishedAt = s.now()
	outcome := "ok"
	if report.Partial() {
		outcome = "partial"
	}
	metrics.AnalysisRuns.WithLabelValues(string(trigger), outcome).Inc()
	log.Info("analysis complete",
		logger.String("outcome", outcome),
		logger.Int("activities", report.ActivitiesAnalyzed),
		logger.Int("correlations", report.Correlations),
		logger.Int("suggestions_created", report.SuggestionsCreated),
		logger.Int("alerts_created", report.AlertsCreated),
		logger.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (s *analysisService) acquire(ctx context.Context, userID string, trigger models.RunTrigger) (func(), error) {
	if trigger == models.TriggerScheduler {
		return s.locker.TryLock(ctx, userID)
	}
	return s.locker.Lock(ctx, userID)
}

// runStage isolates one engine: an error or panic is logged and counted, and
// the run moves on.
func (s *analysisService) runStage(ctx context.Context, name string, fn func() error, report *models.RunReport) {
	start := time.Now()
	defer metrics.ObserveStage(name, start)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s stage panicked: %v", name, r)
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	metrics.EngineFailures.WithLabelValues(name).Inc()
	report.FailedStages = append(report.FailedStages, name)
	logger.Ctx(ctx).Error("analysis stage failed", logger.String("stage", name), logger.Err(err))
}

func (s *analysisService) runPatterns(ctx context.Context, snap *snapshot, report *models.RunReport) error {
	model := analytics.DetectPatterns(snap.series, snap.categories, s.policy)
	model.UserID = report.UserID
	if err := s.store.Patterns.SavePatternModel(ctx, model); err != nil {
		return fmt.Errorf("failed to save pattern model: %w", err)
	}
	report.PatternsUpdated = true

	// suggestions read the fresh model but fail on their own
	s.runStage(ctx, StageSuggestions, func() error {
		return s.runSuggestions(ctx, snap, model, report)
	}, report)
	return nil
}

func (s *analysisService) runSuggestions(ctx context.Context, snap *snapshot, model models.PatternModel, report *models.RunReport) error {
	existing, err := s.store.Suggestions.ListSuggestions(ctx, report.UserID, models.SuggestionFilter{})
	if err != nil {
		return fmt.Errorf("failed to list suggestions: %w", err)
	}

	created := analytics.GenerateSuggestions(model, analytics.SuggestionContext{
		UserID:        report.UserID,
		Now:           snap.series.Now,
		Today:         analytics.TodayFrom(snap.series),
		Existing:      existing,
		CategoryNames: analytics.CategoryNames(snap.categories),
	}, s.policy)
	if len(created) == 0 {
		return nil
	}

	if err := s.store.Suggestions.InsertSuggestions(ctx, created); err != nil {
		return fmt.Errorf("failed to insert suggestions: %w", err)
	}
	for _, sug := range created {
		metrics.SuggestionsCreated.WithLabelValues(string(sug.Type)).Inc()
	}
	report.SuggestionsCreated = len(created)
	return nil
}

func (s *analysisService) runCorrelations(ctx context.Context, snap *snapshot, report *models.RunReport) error {
	correlations, errs := analytics.ComputeCorrelations(snap.series, snap.categories, s.policy)
	for _, err := range errs {
		if errors.Is(err, analytics.ErrInsufficientData) {
			metrics.InsufficientPairs.Inc()
			report.InsufficientPairs++
			continue
		}
		logger.Ctx(ctx).Warn("correlation pair failed", logger.Err(err))
	}

	recent := analytics.RecentCategories(snap.series, s.policy.PredictionLookback)
	analysis := models.CorrelationAnalysis{
		UserID:       report.UserID,
		Correlations: correlations,
		Insights:     analytics.DeriveInsights(correlations, snap.categories, s.policy),
		Predictions:  analytics.DerivePredictions(correlations, recent, s.policy),
		DataPoints:   analytics.ActiveDayCount(snap.series),
		WindowDays:   s.policy.WindowDays,
		LastAnalyzed: snap.series.Now,
	}
	if err := s.store.Correlations.SaveCorrelationAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to save correlation analysis: %w", err)
	}
	report.Correlations = len(analysis.Correlations)
	report.Predictions = len(analysis.Predictions)
	return nil
}

func (s *analysisService) runRisk(ctx context.Context, snap *snapshot, report *models.RunReport) error {
	log := logger.Ctx(ctx)

	predictions, errs := analytics.AssessAll(snap.series, snap.categories, s.policy)
	for _, err := range errs {
		log.Warn("risk assessment failed", logger.Err(err))
	}
	report.RiskAssessed = len(predictions)

	existing, err := s.store.Alerts.ListAlerts(ctx, report.UserID, models.AlertFilter{
		UnreadOnly: true,
		Type:       models.AlertHabitDegradation,
	})
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	for _, pred := range predictions {
		if !analytics.ShouldAlert(pred, existing) {
			continue
		}
		alert := analytics.NewAlert(report.UserID, pred, snap.series.Now)
		if err := s.store.Alerts.CreateAlert(ctx, alert); err != nil {
			if errors.Is(err, analytics.ErrConflict) {
				// another writer created it first; theirs stands
				log.Debug("alert already exists", logger.String("category_id", pred.CategoryID))
				continue
			}
			return fmt.Errorf("failed to create alert: %w", err)
		}
		existing = append(existing, alert)
		report.AlertsCreated++
		metrics.AlertsCreated.WithLabelValues(string(pred.RiskLevel)).Inc()
		log.Info("risk alert created",
			logger.String("alert_id", alert.ID),
			logger.String("category_id", pred.CategoryID),
			logger.Int("risk_score", pred.RiskScore),
		)

		if err := s.publisher.PublishAlertCreated(ctx, alert); err != nil {
			log.Warn("failed to publish alert event", logger.String("alert_id", alert.ID), logger.Err(err))
		}
	}
	return nil
}
