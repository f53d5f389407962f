package models

import "time"

// RunTrigger names what started an analysis run
type RunTrigger string

const (
	TriggerAPI       RunTrigger = "api"
	TriggerScheduler RunTrigger = "scheduler"
	TriggerCLI       RunTrigger = "cli"
)

// RunReport describes what one analysis run produced. Stages that failed are
// listed in FailedStages and their previous snapshot is left in place.
type RunReport struct {
	RunID              string     `json:"run_id"`
	UserID             string     `json:"user_id"`
	Trigger            RunTrigger `json:"trigger"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
	WindowDays         int        `json:"window_days"`
	ActivitiesAnalyzed int        `json:"activities_analyzed"`
	SkippedRecords     int        `json:"skipped_records"`
	PatternsUpdated    bool       `json:"patterns_updated"`
	SuggestionsCreated int        `json:"suggestions_created"`
	Correlations       int        `json:"correlations"`
	InsufficientPairs  int        `json:"insufficient_pairs"`
	Predictions        int        `json:"predictions"`
	RiskAssessed       int        `json:"risk_assessed"`
	AlertsCreated      int        `json:"alerts_created"`
	FailedStages       []string   `json:"failed_stages,omitempty"`
}

// Partial reports whether any stage failed.
func (r RunReport) Partial() bool {
	return len(r.FailedStages) > 0
}
