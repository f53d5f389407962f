// Package analytics implements the behavioral analytics engines: activity
// aggregation, pattern detection, suggestions, cross-category correlation
// and habit degradation risk. Everything in this package is a pure function
// of its inputs; persistence and scheduling live in the service layer.
package analytics

import (
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// Policy carries every tunable threshold used by the engines.
type Policy struct {
	WindowDays int `mapstructure:"window_days"`

	// Pattern engine
	PreferredCategoriesTopN   int     `mapstructure:"preferred_categories_top_n"`
	PeakHourRatio             float64 `mapstructure:"peak_hour_ratio"`
	DailyFrequencyRatio       float64 `mapstructure:"daily_frequency_ratio"`
	WeeklyFrequencyRatio      float64 `mapstructure:"weekly_frequency_ratio"`
	TrendChangeRatio          float64 `mapstructure:"trend_change_ratio"`
	MinSequenceFrequency      float64 `mapstructure:"min_sequence_frequency"`
	MinSequenceOccurrences    int     `mapstructure:"min_sequence_occurrences"`
	StrengthConsistencyWeight float64 `mapstructure:"strength_consistency_weight"`
	StrengthStabilityWeight   float64 `mapstructure:"strength_stability_weight"`

	// Suggestions
	UpcomingLeadTime         time.Duration `mapstructure:"upcoming_lead_time"`
	SequenceSuggestionTTL    time.Duration `mapstructure:"sequence_suggestion_ttl"`
	HighPriorityConfidence   float64       `mapstructure:"high_priority_confidence"`
	MediumPriorityConfidence float64       `mapstructure:"medium_priority_confidence"`

	// Correlation engine
	MinCorrelationDays      int           `mapstructure:"min_correlation_days"`
	MinAbsCoefficient       float64       `mapstructure:"min_abs_coefficient"`
	NotableSampleSize       int           `mapstructure:"notable_sample_size"`
	StrongInsightCoeff      float64       `mapstructure:"strong_insight_coefficient"`
	ActionableCoeff         float64       `mapstructure:"actionable_coefficient"`
	PredictionCoeff         float64       `mapstructure:"prediction_coefficient"`
	PredictionConfidenceCap float64       `mapstructure:"prediction_confidence_cap"`
	PredictionLookback      time.Duration `mapstructure:"prediction_lookback"`

	// Themes map an insight theme to category kinds and name keywords.
	Themes map[string][]string `mapstructure:"themes"`

	// Risk engine
	RiskWeights          RiskWeights         `mapstructure:"risk_weights"`
	RecommendationFloor  float64             `mapstructure:"recommendation_floor"`
	MaxInterventionSteps int                 `mapstructure:"max_intervention_steps"`
	Recommendations      map[string][]string `mapstructure:"recommendations"`
}

// RiskWeights weighs each term of the risk score
type RiskWeights struct {
	Frequency   float64 `mapstructure:"frequency"`
	Duration    float64 `mapstructure:"duration"`
	Consistency float64 `mapstructure:"consistency"`
	Inactivity  float64 `mapstructure:"inactivity"`
}

// Recommendation catalog keys
const (
	TermFrequency   = "frequency"
	TermDuration    = "duration"
	TermConsistency = "consistency"
	TermInactivity  = "inactivity"
	TermMaintain    = "maintain"
)

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		WindowDays: 90,

		PreferredCategoriesTopN:   3,
		PeakHourRatio:             0.7,
		DailyFrequencyRatio:       0.7,
		WeeklyFrequencyRatio:      0.25,
		TrendChangeRatio:          0.15,
		MinSequenceFrequency:      0.4,
		MinSequenceOccurrences:    2,
		StrengthConsistencyWeight: 0.6,
		StrengthStabilityWeight:   0.4,

		UpcomingLeadTime:         30 * time.Minute,
		SequenceSuggestionTTL:    2 * time.Hour,
		HighPriorityConfidence:   0.8,
		MediumPriorityConfidence: 0.5,

		MinCorrelationDays:      10,
		MinAbsCoefficient:       0.3,
		NotableSampleSize:       20,
		StrongInsightCoeff:      0.6,
		ActionableCoeff:         0.4,
		PredictionCoeff:         0.4,
		PredictionConfidenceCap: 0.95,
		PredictionLookback:      24 * time.Hour,

		Themes: map[string][]string{
			"physical_health": {"physical_health", "physical health", "health", "fitness", "exercise", "workout", "sleep", "sport"},
			"career":          {"career", "work", "job", "professional", "business"},
		},

		RiskWeights: RiskWeights{
			Frequency:   0.35,
			Duration:    0.20,
			Consistency: 0.25,
			Inactivity:  0.20,
		},
		RecommendationFloor:  5,
		MaxInterventionSteps: 3,
		Recommendations: map[string][]string{
			TermInactivity: {
				"Log a short {category} session today, even ten minutes keeps the habit alive",
				"Set a reminder for {category} at the time you used to do it",
			},
			TermFrequency: {
				"Block a recurring slot for {category} in your calendar",
				"Aim for one more {category} session this week than last week",
			},
			TermDuration: {
				"Start with shorter {category} sessions and build back up gradually",
			},
			TermConsistency: {
				"Pair {category} with an existing daily routine",
				"Track {category} on a streak to rebuild consistency",
			},
			TermMaintain: {
				"Keep your current {category} routine going",
			},
		},
	}
}

// Normalize fills zero-valued fields with defaults so partially configured
// policies stay usable.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	if p.WindowDays <= 0 {
		p.WindowDays = d.WindowDays
	}
	if p.PreferredCategoriesTopN <= 0 {
		p.PreferredCategoriesTopN = d.PreferredCategoriesTopN
	}
	if p.PeakHourRatio <= 0 {
		p.PeakHourRatio = d.PeakHourRatio
	}
	if p.DailyFrequencyRatio <= 0 {
		p.DailyFrequencyRatio = d.DailyFrequencyRatio
	}
	if p.WeeklyFrequencyRatio <= 0 {
		p.WeeklyFrequencyRatio = d.WeeklyFrequencyRatio
	}
	if p.TrendChangeRatio <= 0 {
		p.TrendChangeRatio = d.TrendChangeRatio
	}
	if p.MinSequenceFrequency <= 0 {
		p.MinSequenceFrequency = d.MinSequenceFrequency
	}
	if p.MinSequenceOccurrences <= 0 {
		p.MinSequenceOccurrences = d.MinSequenceOccurrences
	}
	if p.StrengthConsistencyWeight <= 0 && p.StrengthStabilityWeight <= 0 {
		p.StrengthConsistencyWeight = d.StrengthConsistencyWeight
		p.StrengthStabilityWeight = d.StrengthStabilityWeight
	}
	if p.UpcomingLeadTime <= 0 {
		p.UpcomingLeadTime = d.UpcomingLeadTime
	}
	if p.SequenceSuggestionTTL <= 0 {
		p.SequenceSuggestionTTL = d.SequenceSuggestionTTL
	}
	if p.HighPriorityConfidence <= 0 {
		p.HighPriorityConfidence = d.HighPriorityConfidence
	}
	if p.MediumPriorityConfidence <= 0 {
		p.MediumPriorityConfidence = d.MediumPriorityConfidence
	}
	if p.MinCorrelationDays <= 0 {
		p.MinCorrelationDays = d.MinCorrelationDays
	}
	if p.MinAbsCoefficient <= 0 {
		p.MinAbsCoefficient = d.MinAbsCoefficient
	}
	if p.NotableSampleSize <= 0 {
		p.NotableSampleSize = d.NotableSampleSize
	}
	if p.StrongInsightCoeff <= 0 {
		p.StrongInsightCoeff = d.StrongInsightCoeff
	}
	if p.ActionableCoeff <= 0 {
		p.ActionableCoeff = d.ActionableCoeff
	}
	if p.PredictionCoeff <= 0 {
		p.PredictionCoeff = d.PredictionCoeff
	}
	if p.PredictionConfidenceCap <= 0 {
		p.PredictionConfidenceCap = d.PredictionConfidenceCap
	}
	if p.PredictionLookback <= 0 {
		p.PredictionLookback = d.PredictionLookback
	}
	if len(p.Themes) == 0 {
		p.Themes = d.Themes
	}
	if p.RiskWeights == (RiskWeights{}) {
		p.RiskWeights = d.RiskWeights
	}
	if p.RecommendationFloor <= 0 {
		p.RecommendationFloor = d.RecommendationFloor
	}
	if p.MaxInterventionSteps <= 0 {
		p.MaxInterventionSteps = d.MaxInterventionSteps
	}
	if len(p.Recommendations) == 0 {
		p.Recommendations = d.Recommendations
	}
	return p
}

// priority maps a confidence value onto a suggestion priority.
func (p Policy) priority(confidence float64) models.Priority {
	switch {
	case confidence >= p.HighPriorityConfidence:
		return models.PriorityHigh
	case confidence >= p.MediumPriorityConfidence:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
