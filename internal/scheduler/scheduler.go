// Package scheduler periodically re-runs analysis for recently active users.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
)

// Scheduler analyzes every user with recent activity on a fixed interval.
type Scheduler struct {
	activities repository.ActivityRepository
	analysis   service.AnalysisService
	log        logger.Logger
	interval   time.Duration
	// lookback bounds which users count as active.
	lookback time.Duration
	now      func() time.Time
}

// New creates a scheduler. Users active within lookback are analyzed every
// interval.
func New(activities repository.ActivityRepository, analysis service.AnalysisService, log logger.Logger, interval, lookback time.Duration) *Scheduler {
	return &Scheduler{
		activities: activities,
		analysis:   analysis,
		log:        log,
		interval:   interval,
		lookback:   lookback,
		now:        time.Now,
	}
}

// Start runs a pass immediately and then every interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("analysis scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("lookback", s.lookback),
	)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("analysis scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Result counts the outcomes of one pass.
type Result struct {
	Analyzed int
	Busy     int
	Failed   int
}

// RunOnce analyzes each active user in turn. A failure for one user does not
// stop the pass.
func (s *Scheduler) RunOnce(ctx context.Context) Result {
	var res Result
	start := time.Now()

	userIDs, err := s.activities.ListActiveUserIDs(ctx, s.now().Add(-s.lookback))
	if err != nil {
		s.log.Error("failed to list active users", logger.Err(err))
		return res
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		_, err := s.analysis.Run(ctx, userID, models.TriggerScheduler)
		switch {
		case err == nil:
			res.Analyzed++
		case errors.Is(err, lock.ErrBusy):
			res.Busy++
		default:
			res.Failed++
			s.log.Warn("scheduled analysis failed", logger.String("user_id", userID), logger.Err(err))
		}
	}

	s.log.Info("scheduled analysis pass complete",
		logger.Int("users", len(userIDs)),
		logger.Int("analyzed", res.Analyzed),
		logger.Int("busy", res.Busy),
		logger.Int("failed", res.Failed),
		logger.Duration("duration", time.Since(start)),
	)
	return res
}
