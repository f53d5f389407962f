package analytics

import (
	"fmt"
	"sort"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PatternInsights turns a pattern model into readable statements.
func PatternInsights(model models.PatternModel, categories []models.Category) []models.PatternInsight {
	titleCaser := cases.Title(language.English)
	names := CategoryNames(categories)
	insights := make([]models.PatternInsight, 0)

	var bestBand models.TimeBand
	bestConsistency := 0.0
	for _, b := range timeBands {
		dp := model.DailyPatterns[b.name]
		if dp.Consistency > bestConsistency {
			bestBand, bestConsistency = b.name, dp.Consistency
		}
	}
	if bestBand != "" {
		dp := model.DailyPatterns[bestBand]
		desc := fmt.Sprintf("You're active in the %s on %.0f%% of days", bestBand, bestConsistency*100)
		if len(dp.PeakHours) > 0 {
			desc += fmt.Sprintf(", most often around %s", formatHour(dp.PeakHours[0]))
		}
		insights = append(insights, models.PatternInsight{
			Type:        "time_of_day",
			Title:       fmt.Sprintf("%s person", titleCaser.String(string(bestBand))),
			Description: desc,
			Confidence:  bestConsistency,
		})
	}

	wp := model.WeeklyPatterns
	if wp.DayTotals[wp.MostActiveDay] > 0 {
		insights = append(insights, models.PatternInsight{
			Type:  "day_of_week",
			Title: fmt.Sprintf("%ss are your busiest day", wp.MostActiveDay),
			Description: fmt.Sprintf("You logged %d activities on %ss and %d on %ss",
				wp.DayTotals[wp.MostActiveDay], wp.MostActiveDay, wp.DayTotals[wp.LeastActiveDay], wp.LeastActiveDay),
			Confidence: dayShare(wp),
		})

		switch {
		case wp.WeekendAvg > wp.WeekdayAvg*1.2:
			insights = append(insights, models.PatternInsight{
				Type:        "weekly_balance",
				Title:       "Weekend warrior",
				Description: fmt.Sprintf("You average %.1f activities on weekend days vs %.1f on weekdays", wp.WeekendAvg, wp.WeekdayAvg),
				Confidence:  0.5,
			})
		case wp.WeekdayAvg > wp.WeekendAvg*1.2:
			insights = append(insights, models.PatternInsight{
				Type:        "weekly_balance",
				Title:       "Weekday routine",
				Description: fmt.Sprintf("You average %.1f activities on weekdays vs %.1f on weekend days", wp.WeekdayAvg, wp.WeekendAvg),
				Confidence:  0.5,
			})
		}
	}

	for _, cp := range sortedCategoryPatterns(model) {
		name := names[cp.CategoryID]
		if name == "" {
			name = cp.CategoryID
		}
		switch cp.Trend {
		case models.TrendIncreasing:
			insights = append(insights, models.PatternInsight{
				Type:        "trend",
				Title:       fmt.Sprintf("%s is on the rise", name),
				Description: fmt.Sprintf("You've spent more time on %s recently than earlier in the period", name),
				CategoryID:  cp.CategoryID,
				Confidence:  cp.ActiveDayRatio,
			})
		case models.TrendDecreasing:
			insights = append(insights, models.PatternInsight{
				Type:        "trend",
				Title:       fmt.Sprintf("%s is slipping", name),
				Description: fmt.Sprintf("You've spent less time on %s recently than earlier in the period", name),
				CategoryID:  cp.CategoryID,
				Confidence:  cp.ActiveDayRatio,
			})
		}
		if cp.CurrentStreakDays >= 7 {
			insights = append(insights, models.PatternInsight{
				Type:        "streak",
				Title:       fmt.Sprintf("%d-day %s streak", cp.CurrentStreakDays, name),
				Description: fmt.Sprintf("Your longest %s streak in this period is %d days", name, cp.LongestStreakDays),
				CategoryID:  cp.CategoryID,
				Confidence:  cp.ActiveDayRatio,
			})
		}
	}

	if len(model.HabitSequences) > 0 {
		seq := model.HabitSequences[0]
		insights = append(insights, models.PatternInsight{
			Type:        "sequence",
			Title:       "Habit chain",
			Description: fmt.Sprintf("%s is followed by %s %.0f%% of the time", seq.Sequence[0], seq.Sequence[1], seq.Frequency*100),
			Confidence:  seq.Frequency,
		})
	}

	sort.SliceStable(insights, func(i, j int) bool { return insights[i].Confidence > insights[j].Confidence })
	return insights
}

func dayShare(wp models.WeeklyPattern) float64 {
	total := 0
	for _, t := range wp.DayTotals {
		total += t
	}
	if total == 0 {
		return 0
	}
	return float64(wp.DayTotals[wp.MostActiveDay]) / float64(total)
}

// CategoryNames indexes category names by id.
func CategoryNames(categories []models.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
