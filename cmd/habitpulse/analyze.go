package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/analytics"
	"github.com/JonnyWalker81/habitpulse/backend/internal/config"
	"github.com/JonnyWalker81/habitpulse/backend/internal/fixture"
	"github.com/JonnyWalker81/habitpulse/backend/internal/lock"
	"github.com/JonnyWalker81/habitpulse/backend/internal/logger"
	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository/memory"
	"github.com/JonnyWalker81/habitpulse/backend/internal/service"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis over a YAML fixture",
	Long:  `Load an activity history from a YAML fixture into memory, run every engine once and print the results as JSON.`,
	RunE:  runAnalyze,
}

var (
	fixturePath string
	nowFlag     string
	windowDays  int
	logLevel    string
)

func init() {
	analyzeCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "Path to the YAML fixture")
	analyzeCmd.Flags().StringVar(&nowFlag, "now", "", "Analysis time as RFC3339 (defaults to the fixture's now, then the current time)")
	analyzeCmd.Flags().IntVar(&windowDays, "window", 0, "Analysis window in days (defaults to 90)")
	analyzeCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	_ = analyzeCmd.MarkFlagRequired("fixture")
}

// analyzeOutput is everything one run produced for the fixture's user.
type analyzeOutput struct {
	Report       *models.RunReport          `json:"report"`
	Patterns     *models.PatternModel       `json:"patterns,omitempty"`
	Strength     *models.PatternStrength    `json:"strength"`
	Suggestions  []models.Suggestion        `json:"suggestions"`
	Correlations *models.CorrelationSummary `json:"correlations"`
	Risk         *models.RiskSummary        `json:"risk"`
	Alerts       []models.Alert             `json:"alerts"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	newLogger(config.LoggingConfig{Level: logLevel, Format: "text", Backend: logger.BackendSlog}, cmd.ErrOrStderr())

	fx, err := fixture.Load(fixturePath)
	if err != nil {
		return err
	}

	now := fx.Now
	if nowFlag != "" {
		now, err = time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
	}
	if now.IsZero() {
		now = time.Now()
	}

	policy := analytics.DefaultPolicy()
	if windowDays > 0 {
		policy.WindowDays = windowDays
	}

	mem := memory.New()
	fx.Seed(mem, now)
	store := mem.Repositories()
	clock := service.WithClock(func() time.Time { return now })

	analysis := service.NewAnalysisService(store, lock.NewKeyedMutex(), nil, policy, clock)
	patterns := service.NewPatternService(store, policy, clock)
	correlations := service.NewCorrelationService(store)
	risk := service.NewRiskService(store, policy, clock)

	ctx := cmd.Context()
	var out analyzeOutput
	if out.Report, err = analysis.Run(ctx, fx.UserID, models.TriggerCLI); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	// a failed pattern stage leaves no model; the rest is still worth printing
	if out.Patterns, err = patterns.GetPatterns(ctx, fx.UserID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if out.Strength, err = patterns.GetStrength(ctx, fx.UserID); err != nil {
		return err
	}
	if out.Suggestions, err = patterns.ListSuggestions(ctx, fx.UserID, models.SuggestionFilter{}); err != nil {
		return err
	}
	if out.Correlations, err = correlations.GetSummary(ctx, fx.UserID); err != nil {
		return err
	}
	if out.Risk, err = risk.GetSummary(ctx, fx.UserID); err != nil {
		return err
	}
	if out.Alerts, err = risk.ListAlerts(ctx, fx.UserID, models.AlertFilter{}); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
