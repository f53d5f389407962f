package models

import "time"

// ActivityRecord is a single logged activity. Records are owned by the
// activity store and are read-only to the analytics engines.
type ActivityRecord struct {
	ID              string     `json:"id" yaml:"id"`
	UserID          string     `json:"user_id" yaml:"user_id"`
	CategoryID      string     `json:"category_id,omitempty" yaml:"category_id"`
	Description     string     `json:"description" yaml:"description"`
	StartTime       time.Time  `json:"start_time" yaml:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty" yaml:"end_time"`
	DurationMinutes float64    `json:"duration_minutes" yaml:"duration_minutes"`
}

// HasCategory reports whether the record is attached to a category.
func (a ActivityRecord) HasCategory() bool {
	return a.CategoryID != ""
}

// Hours returns the logged duration in hours.
func (a ActivityRecord) Hours() float64 {
	return a.DurationMinutes / 60
}

// Category is a user-defined life category activities are logged against.
type Category struct {
	ID     string `json:"id" yaml:"id"`
	UserID string `json:"user_id" yaml:"user_id"`
	Name   string `json:"name" yaml:"name"`
	// Kind is an optional free-text tag such as "physical_health" or "career".
	Kind      string    `json:"kind,omitempty" yaml:"kind"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Direction represents the sign of a correlation
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)
