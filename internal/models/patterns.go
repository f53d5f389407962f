package models

import "time"

// TimeBand names a time-of-day band used by daily patterns
type TimeBand string

const (
	TimeBandMorning   TimeBand = "morning"
	TimeBandAfternoon TimeBand = "afternoon"
	TimeBandEvening   TimeBand = "evening"
)

// Frequency classifies how often a category is active
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyRare   Frequency = "rare"
)

// Trend classifies the direction of a category's recent volume
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// DailyPattern describes activity within one time-of-day band
type DailyPattern struct {
	PreferredCategories []string `json:"preferred_categories"`
	PeakHours           []int    `json:"peak_hours"`
	Consistency         float64  `json:"consistency"`
}

// WeeklyPattern describes how activity spreads across the week
type WeeklyPattern struct {
	MostActiveDay  time.Weekday `json:"most_active_day"`
	LeastActiveDay time.Weekday `json:"least_active_day"`
	WeekdayAvg     float64      `json:"weekday_avg"`
	WeekendAvg     float64      `json:"weekend_avg"`
	// DayTotals holds the activity count per weekday, Sunday first.
	DayTotals [7]int `json:"day_totals"`
}

// CategoryPattern summarizes one category's behavior over the window
type CategoryPattern struct {
	CategoryID            string       `json:"category_id"`
	Frequency             Frequency    `json:"frequency"`
	AvgDurationMinutes    float64      `json:"avg_duration_minutes"`
	Trend                 Trend        `json:"trend"`
	ActiveDayRatio        float64      `json:"active_day_ratio"`
	PeakHour              int          `json:"peak_hour"`
	PreferredWeekday      time.Weekday `json:"preferred_weekday"`
	PreferredWeekdayRatio float64      `json:"preferred_weekday_ratio"`
	CurrentStreakDays     int          `json:"current_streak_days"`
	LongestStreakDays     int          `json:"longest_streak_days"`
}

// HabitSequence is an ordered pair of activities that tend to follow each other
type HabitSequence struct {
	Sequence    []string `json:"sequence"`
	CategoryIDs []string `json:"category_ids"`
	Occurrences int      `json:"occurrences"`
	Frequency   float64  `json:"frequency"`
}

// PatternModel is the persisted output of the pattern engine. It is replaced
// wholesale on every analysis run.
type PatternModel struct {
	UserID           string                     `json:"user_id"`
	DailyPatterns    map[TimeBand]DailyPattern  `json:"daily_patterns"`
	WeeklyPatterns   WeeklyPattern              `json:"weekly_patterns"`
	CategoryPatterns map[string]CategoryPattern `json:"category_patterns"`
	HabitSequences   []HabitSequence            `json:"habit_sequences"`
	WindowDays       int                        `json:"window_days"`
	LastAnalyzed     time.Time                  `json:"last_analyzed"`
}

// PatternInsight is a human-readable statement derived from a PatternModel
type PatternInsight struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// PatternStrength is the overall pattern strength score for a user
type PatternStrength struct {
	Score        int       `json:"score"`
	LastAnalyzed time.Time `json:"last_analyzed"`
}

// SuggestionType identifies the rule that produced a suggestion
type SuggestionType string

const (
	SuggestionHabitResumption SuggestionType = "habit_resumption"
	SuggestionUpcomingHabit   SuggestionType = "upcoming_habit"
	SuggestionSequence        SuggestionType = "sequence_suggestion"
	SuggestionWeeklyHabit     SuggestionType = "weekly_habit"
)

// Priority ranks suggestions and is derived from confidence
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Timing tells the client when a suggestion is relevant
type Timing string

const (
	TimingImmediate Timing = "immediate"
	TimingUpcoming  Timing = "upcoming"
	TimingSequence  Timing = "sequence"
	TimingWeekly    Timing = "weekly"
)

// ActionType is the client action a suggestion proposes
type ActionType string

const (
	ActionLogActivity     ActionType = "log_activity"
	ActionPrepareActivity ActionType = "prepare_activity"
	ActionReminder        ActionType = "reminder"
)

// Suggestion is a time-sensitive proactive recommendation
type Suggestion struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	CategoryID string         `json:"category_id"`
	Type       SuggestionType `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Priority   Priority       `json:"priority"`
	Confidence float64        `json:"confidence"`
	Timing     Timing         `json:"timing"`
	ActionType ActionType     `json:"action_type"`
	Read       bool           `json:"read"`
	ActedOn    bool           `json:"acted_on"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Expired reports whether the suggestion is inert at the given instant.
func (s Suggestion) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SuggestionFilter narrows suggestion listings
type SuggestionFilter struct {
	Read *bool
	Type SuggestionType
}
