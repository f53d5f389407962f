package models

import "time"

// Strength buckets the absolute value of a correlation coefficient
type Strength string

const (
	StrengthVeryWeak   Strength = "very_weak"
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// Rank orders strengths from very weak (0) to very strong (4).
func (s Strength) Rank() int {
	switch s {
	case StrengthWeak:
		return 1
	case StrengthModerate:
		return 2
	case StrengthStrong:
		return 3
	case StrengthVeryStrong:
		return 4
	default:
		return 0
	}
}

// Significance labels
const (
	SignificanceNotable      = "statistically notable"
	SignificanceSuggestive   = "suggestive"
	SignificanceInconclusive = "inconclusive"
)

// Correlation is a Pearson correlation between two categories' daily hours
type Correlation struct {
	CategoryA     string    `json:"category_a"`
	CategoryB     string    `json:"category_b"`
	CategoryAName string    `json:"category_a_name"`
	CategoryBName string    `json:"category_b_name"`
	Coefficient   float64   `json:"coefficient"`
	Strength      Strength  `json:"strength"`
	Direction     Direction `json:"direction"`
	Significance  string    `json:"significance"`
	PValue        float64   `json:"p_value"`
	SampleSize    int       `json:"sample_size"`
	OverlapDays   int       `json:"overlap_days"`
}

// Involves reports whether the correlation touches the given category.
func (c Correlation) Involves(categoryID string) bool {
	return c.CategoryA == categoryID || c.CategoryB == categoryID
}

// Other returns the category on the opposite side of categoryID.
func (c Correlation) Other(categoryID string) (id, name string) {
	if c.CategoryA == categoryID {
		return c.CategoryB, c.CategoryBName
	}
	return c.CategoryA, c.CategoryAName
}

// InsightTheme groups correlations into a narrative bucket
type InsightTheme string

const (
	ThemeStrongPositive InsightTheme = "strong_positive"
	ThemeStrongNegative InsightTheme = "strong_negative"
	ThemePhysicalHealth InsightTheme = "physical_health"
	ThemeCareer         InsightTheme = "career"
)

// CorrelationInsight is a templated statement about a group of correlations
type CorrelationInsight struct {
	Theme        InsightTheme  `json:"theme"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Correlations []Correlation `json:"correlations"`
	Actionable   bool          `json:"actionable"`
}

// ExpectedChange is the direction a prediction expects
type ExpectedChange string

const (
	ChangeIncrease ExpectedChange = "increase"
	ChangeDecrease ExpectedChange = "decrease"
)

// Prediction forecasts movement in one category from recent activity in another
type Prediction struct {
	TriggerCategoryID     string         `json:"trigger_category_id"`
	TriggerCategoryName   string         `json:"trigger_category_name"`
	PredictedCategoryID   string         `json:"predicted_category_id"`
	PredictedCategoryName string         `json:"predicted_category_name"`
	ExpectedChange        ExpectedChange `json:"expected_change"`
	Timeframe             string         `json:"timeframe"`
	Confidence            float64        `json:"confidence"`
	Coefficient           float64        `json:"coefficient"`
	Recommendation        string         `json:"recommendation"`
}

// CorrelationAnalysis is the persisted output of the correlation engine
type CorrelationAnalysis struct {
	UserID       string               `json:"user_id"`
	Correlations []Correlation        `json:"correlations"`
	Insights     []CorrelationInsight `json:"insights"`
	Predictions  []Prediction         `json:"predictions"`
	DataPoints   int                  `json:"data_points"`
	WindowDays   int                  `json:"window_days"`
	LastAnalyzed time.Time            `json:"last_analyzed"`
}

// CorrelationMatrix is a full symmetric category-by-category view
type CorrelationMatrix struct {
	Categories []Category  `json:"categories"`
	Values     [][]float64 `json:"values"`
}

// CorrelationSummary is a compact overview of an analysis
type CorrelationSummary struct {
	Total             int              `json:"total"`
	ByStrength        map[Strength]int `json:"by_strength"`
	Positive          int              `json:"positive"`
	Negative          int              `json:"negative"`
	StrongestPositive *Correlation     `json:"strongest_positive,omitempty"`
	StrongestNegative *Correlation     `json:"strongest_negative,omitempty"`
	MeanAbsCoeff      float64          `json:"mean_abs_coefficient"`
	DataPoints        int              `json:"data_points"`
	LastAnalyzed      time.Time        `json:"last_analyzed"`
}
