package analytics

import (
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// testNow is a Wednesday evening.
var testNow = time.Date(2026, time.March, 18, 20, 0, 0, 0, time.UTC)

func daysAgo(n, hour, minute int) time.Time {
	return startOfDay(testNow).AddDate(0, 0, -n).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

var activitySeq int

func activity(categoryID, description string, start time.Time, minutes float64) models.ActivityRecord {
	activitySeq++
	return models.ActivityRecord{
		ID:              fmt.Sprintf("act-%05d", activitySeq),
		UserID:          "user-1",
		CategoryID:      categoryID,
		Description:     description,
		StartTime:       start,
		DurationMinutes: minutes,
	}
}

// dailyAt logs one activity per day for every day in [fromAgo, toAgo] (both
// inclusive, fromAgo >= toAgo) at the given hour.
func dailyAt(categoryID, description string, fromAgo, toAgo, hour int, minutes float64) []models.ActivityRecord {
	var out []models.ActivityRecord
	for d := fromAgo; d >= toAgo; d-- {
		out = append(out, activity(categoryID, description, daysAgo(d, hour, 0), minutes))
	}
	return out
}

func category(id, name, kind string) models.Category {
	return models.Category{ID: id, UserID: "user-1", Name: name, Kind: kind}
}

// lookupCorrelation finds the correlation for a pair regardless of order.
func lookupCorrelation(correlations []models.Correlation, a, b string) (models.Correlation, bool) {
	for _, c := range correlations {
		if (c.CategoryA == a && c.CategoryB == b) || (c.CategoryA == b && c.CategoryB == a) {
			return c, true
		}
	}
	return models.Correlation{}, false
}
