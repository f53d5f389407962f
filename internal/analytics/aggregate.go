package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// Day is one calendar day of a DailySeries.
type Day struct {
	Date   time.Time
	Hours  map[string]float64
	Counts map[string]int
	// HourCounts counts every activity starting in each hour, categorized or not.
	HourCounts [24]int
	Total      int
}

// Occurrence is a categorized activity placed on the series timeline.
type Occurrence struct {
	ActivityID  string
	DayIndex    int
	CategoryID  string
	Description string
	Start       time.Time
	StartHour   int
	Minutes     float64
}

// Label returns the description used for sequence mining, falling back to
// the category when the activity has none.
func (o Occurrence) Label() string {
	if o.Description != "" {
		return o.Description
	}
	return o.CategoryID
}

// DailySeries is the per-day, per-category view every engine consumes.
type DailySeries struct {
	Start         time.Time
	Now           time.Time
	Days          []Day
	HourHistogram [24]int
	// Occurrences is ordered by start time.
	Occurrences []Occurrence
	// Skipped collects records that were dropped with a typed error.
	Skipped []error
}

type aggregateOptions struct {
	known map[string]bool
}

// AggregateOption customizes Aggregate.
type AggregateOption func(*aggregateOptions)

// WithKnownCategories rejects activities whose category is not in the list.
func WithKnownCategories(categories []models.Category) AggregateOption {
	return func(o *aggregateOptions) {
		o.known = make(map[string]bool, len(categories))
		for _, c := range categories {
			o.known[c.ID] = true
		}
	}
}

// Aggregate buckets activities into the windowDays calendar days ending with
// the local day of now. Records outside the window are discarded.
func Aggregate(activities []models.ActivityRecord, windowDays int, now time.Time, opts ...AggregateOption) *DailySeries {
	var o aggregateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if windowDays < 1 {
		windowDays = 1
	}

	today := startOfDay(now)
	series := &DailySeries{
		Start: today.AddDate(0, 0, -(windowDays - 1)),
		Now:   now,
		Days:  make([]Day, windowDays),
	}
	for i := range series.Days {
		series.Days[i] = Day{
			Date:   series.Start.AddDate(0, 0, i),
			Hours:  make(map[string]float64),
			Counts: make(map[string]int),
		}
	}

	for _, a := range activities {
		if a.DurationMinutes < 0 {
			series.Skipped = append(series.Skipped, &InvalidActivityError{ActivityID: a.ID, Reason: "negative duration"})
			continue
		}
		if a.EndTime != nil && a.EndTime.Before(a.StartTime) {
			series.Skipped = append(series.Skipped, &InvalidActivityError{ActivityID: a.ID, Reason: "ends before it starts"})
			continue
		}

		local := a.StartTime.In(now.Location())
		idx := daysBetween(series.Start, startOfDay(local))
		if idx < 0 || idx >= windowDays {
			continue
		}

		day := &series.Days[idx]
		hour := local.Hour()
		day.HourCounts[hour]++
		day.Total++
		series.HourHistogram[hour]++

		if !a.HasCategory() {
			continue
		}
		if o.known != nil && !o.known[a.CategoryID] {
			series.Skipped = append(series.Skipped, &InvalidCategoryError{ActivityID: a.ID, CategoryID: a.CategoryID})
			continue
		}

		day.Hours[a.CategoryID] += a.Hours()
		day.Counts[a.CategoryID]++
		series.Occurrences = append(series.Occurrences, Occurrence{
			ActivityID:  a.ID,
			DayIndex:    idx,
			CategoryID:  a.CategoryID,
			Description: a.Description,
			Start:       local,
			StartHour:   hour,
			Minutes:     a.DurationMinutes,
		})
	}

	sort.SliceStable(series.Occurrences, func(i, j int) bool {
		a, b := series.Occurrences[i], series.Occurrences[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ActivityID < b.ActivityID
	})

	return series
}

// WindowDays returns the number of days covered by the series.
func (s *DailySeries) WindowDays() int {
	return len(s.Days)
}

// Today returns the index of the last day in the window.
func (s *DailySeries) Today() int {
	return len(s.Days) - 1
}

// HoursFor returns the daily hours vector for a category.
func (s *DailySeries) HoursFor(categoryID string) []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.Hours[categoryID]
	}
	return out
}

// ActiveDays counts the days on which the category has at least one activity.
func (s *DailySeries) ActiveDays(categoryID string) int {
	n := 0
	for _, d := range s.Days {
		if d.Counts[categoryID] > 0 {
			n++
		}
	}
	return n
}

// OccurrencesOn returns the occurrences of one day in start order.
func (s *DailySeries) OccurrencesOn(dayIndex int) []Occurrence {
	var out []Occurrence
	for _, o := range s.Occurrences {
		if o.DayIndex == dayIndex {
			out = append(out, o)
		}
	}
	return out
}

// CategoryIDs lists every category with activity in the window, sorted.
func (s *DailySeries) CategoryIDs() []string {
	seen := make(map[string]bool)
	for _, o := range s.Occurrences {
		seen[o.CategoryID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}

// daysBetween counts calendar days from a to b, tolerating DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
