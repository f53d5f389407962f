package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/metrics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
)

// Option customizes a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// snapshot is everything the engines read for one user, fetched once.
type snapshot struct {
	activities []models.ActivityRecord
	categories []models.Category
	series     *analytics.DailySeries
}

func loadSnapshot(ctx context.Context, activities repository.ActivityRepository, categories repository.CategoryRepository, userID string, now time.Time, p analytics.Policy) (*snapshot, error) {
	// one extra day covers the partial first day of the window
	since := now.AddDate(0, 0, -(p.WindowDays + 1))

	acts, err := activities.ListActivities(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	cats, err := categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	series := analytics.Aggregate(acts, p.WindowDays, now, analytics.WithKnownCategories(cats))
	if len(series.Skipped) > 0 {
		log := logger.Ctx(ctx)
		for _, skipErr := range series.Skipped {
			reason := analytics.SkipReason(skipErr)
			metrics.SkippedRecords.WithLabelValues(reason).Inc()
			log.Debug("skipped activity record", logger.String("reason", reason), logger.Err(skipErr))
		}
		log.Warn("activity records skipped during aggregation", logger.Int("count", len(series.Skipped)))
	}

	return &snapshot{activities: acts, categories: cats, series: series}, nil
}
