package models

import "time"

// RiskLevel buckets a risk score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Alerting reports whether the level warrants an alert.
func (l RiskLevel) Alerting() bool {
	return l == RiskHigh || l == RiskCritical
}

// RiskPrediction is the degradation assessment for one category. It is
// recomputed on every run and only persisted inside alert payloads.
type RiskPrediction struct {
	CategoryID            string    `json:"category_id"`
	CategoryName          string    `json:"category_name"`
	FrequencyTrendPct     float64   `json:"frequency_trend_pct"`
	DurationTrendPct      float64   `json:"duration_trend_pct"`
	ConsistencyScore      int       `json:"consistency_score"`
	DaysSinceLastActivity int       `json:"days_since_last_activity"`
	RiskScore             int       `json:"risk_score"`
	RiskLevel             RiskLevel `json:"risk_level"`
	Recommendations       []string  `json:"recommendations"`
	HasHistory            bool      `json:"has_history"`
}

// RiskSummary aggregates the predictions of a single assessment
type RiskSummary struct {
	Predictions   []RiskPrediction  `json:"predictions"`
	CountsByLevel map[RiskLevel]int `json:"counts_by_level"`
	AverageScore  float64           `json:"average_score"`
	HighestRisk   *RiskPrediction   `json:"highest_risk,omitempty"`
	AtRiskCount   int               `json:"at_risk_count"`
	AssessedAt    time.Time         `json:"assessed_at"`
}

// AlertType identifies the producer of an alert
type AlertType string

const (
	AlertHabitDegradation AlertType = "habit_degradation_alert"
)

// AlertActionData is the payload carried by an alert
type AlertActionData struct {
	RiskPrediction
	InterventionTriggered   bool       `json:"intervention_triggered"`
	InterventionSteps       []string   `json:"intervention_steps,omitempty"`
	InterventionTriggeredAt *time.Time `json:"intervention_triggered_at,omitempty"`
}

// Alert is a user-facing risk notification. Dismissal deletes it.
type Alert struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Type       AlertType       `json:"type"`
	CategoryID string          `json:"category_id"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	ActionData AlertActionData `json:"action_data"`
	Read       bool            `json:"read"`
	ReadAt     *time.Time      `json:"read_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	UnreadOnly bool
	Type       AlertType
	CategoryID string
}
