package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

const predictionTimeframe = "next_24h"

// DeriveInsights groups correlations into themed, templated insights. Each
// non-empty theme yields exactly one insight.
func DeriveInsights(correlations []models.Correlation, categories []models.Category, p Policy) []models.CorrelationInsight {
	themed := themeIndex(categories, p)
	buckets := map[models.InsightTheme][]models.Correlation{}

	for _, c := range correlations {
		if c.Coefficient >= p.StrongInsightCoeff {
			buckets[models.ThemeStrongPositive] = append(buckets[models.ThemeStrongPositive], c)
		}
		if c.Coefficient <= -p.StrongInsightCoeff {
			buckets[models.ThemeStrongNegative] = append(buckets[models.ThemeStrongNegative], c)
		}
		if themed[string(models.ThemePhysicalHealth)][c.CategoryA] || themed[string(models.ThemePhysicalHealth)][c.CategoryB] {
			buckets[models.ThemePhysicalHealth] = append(buckets[models.ThemePhysicalHealth], c)
		}
		if themed[string(models.ThemeCareer)][c.CategoryA] || themed[string(models.ThemeCareer)][c.CategoryB] {
			buckets[models.ThemeCareer] = append(buckets[models.ThemeCareer], c)
		}
	}

	order := []models.InsightTheme{
		models.ThemeStrongPositive,
		models.ThemeStrongNegative,
		models.ThemePhysicalHealth,
		models.ThemeCareer,
	}
	insights := make([]models.CorrelationInsight, 0, len(order))
	for _, theme := range order {
		members := buckets[theme]
		if len(members) == 0 {
			continue
		}
		title, desc := describeTheme(theme, members)
		insights = append(insights, models.CorrelationInsight{
			Theme:        theme,
			Title:        title,
			Description:  desc,
			Correlations: members,
			Actionable:   anyAtLeast(members, p.ActionableCoeff),
		})
	}
	return insights
}

// themeIndex resolves, per theme, which category ids belong to it by kind or
// by a keyword in the name.
func themeIndex(categories []models.Category, p Policy) map[string]map[string]bool {
	index := make(map[string]map[string]bool, len(p.Themes))
	for theme, keywords := range p.Themes {
		members := make(map[string]bool)
		for _, c := range categories {
			kind := strings.ToLower(c.Kind)
			name := strings.ToLower(c.Name)
			for _, kw := range keywords {
				kw = strings.ToLower(kw)
				if kind == kw || (kw != "" && strings.Contains(name, kw)) {
					members[c.ID] = true
					break
				}
			}
		}
		index[theme] = members
	}
	return index
}

func describeTheme(theme models.InsightTheme, members []models.Correlation) (title, description string) {
	top := members[0]
	for _, c := range members[1:] {
		if math.Abs(c.Coefficient) > math.Abs(top.Coefficient) {
			top = c
		}
	}
	more := ""
	if len(members) > 1 {
		more = fmt.Sprintf(" (and %d more)", len(members)-1)
	}
	a, b := displayName(top.CategoryAName, top.CategoryA), displayName(top.CategoryBName, top.CategoryB)

	switch theme {
	case models.ThemeStrongPositive:
		return "Habits that move together",
			fmt.Sprintf("%s and %s tend to rise and fall together (r=%.2f)%s", a, b, top.Coefficient, more)
	case models.ThemeStrongNegative:
		return "Competing habits",
			fmt.Sprintf("More time on %s tends to mean less on %s (r=%.2f)%s", a, b, top.Coefficient, more)
	case models.ThemePhysicalHealth:
		return "Your health connections",
			fmt.Sprintf("%s is %s linked with %s (r=%.2f)%s", a, linkWord(top), b, top.Coefficient, more)
	case models.ThemeCareer:
		return "What shapes your work",
			fmt.Sprintf("%s is %s linked with %s (r=%.2f)%s", a, linkWord(top), b, top.Coefficient, more)
	default:
		return string(theme), ""
	}
}

func linkWord(c models.Correlation) string {
	if c.Direction == models.DirectionNegative {
		return "inversely"
	}
	return "positively"
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func anyAtLeast(correlations []models.Correlation, threshold float64) bool {
	for _, c := range correlations {
		if math.Abs(c.Coefficient) >= threshold {
			return true
		}
	}
	return false
}

// RecentCategories returns the categories with an activity that started in
// (now-lookback, now].
func RecentCategories(series *DailySeries, lookback time.Duration) map[string]bool {
	recent := make(map[string]bool)
	from := series.Now.Add(-lookback)
	for _, o := range series.Occurrences {
		if o.Start.After(from) && !o.Start.After(series.Now) {
			recent[o.CategoryID] = true
		}
	}
	return recent
}

// DerivePredictions projects each sufficiently strong correlation forward
// from the categories logged recently. Either side of a pair can trigger a
// prediction for the other; a category that was itself logged recently is
// never predicted.
func DerivePredictions(correlations []models.Correlation, recent map[string]bool, p Policy) []models.Prediction {
	predictions := make([]models.Prediction, 0)
	for _, c := range correlations {
		if math.Abs(c.Coefficient) < p.PredictionCoeff {
			continue
		}
		for _, trigger := range []string{c.CategoryA, c.CategoryB} {
			if !recent[trigger] {
				continue
			}
			triggerName := c.CategoryAName
			if trigger == c.CategoryB {
				triggerName = c.CategoryBName
			}
			predictedID, predictedName := c.Other(trigger)
			if recent[predictedID] {
				continue
			}
			predictions = append(predictions, buildPrediction(c, trigger, displayName(triggerName, trigger), predictedID, displayName(predictedName, predictedID), p))
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].Confidence != predictions[j].Confidence {
			return predictions[i].Confidence > predictions[j].Confidence
		}
		if predictions[i].TriggerCategoryID != predictions[j].TriggerCategoryID {
			return predictions[i].TriggerCategoryID < predictions[j].TriggerCategoryID
		}
		return predictions[i].PredictedCategoryID < predictions[j].PredictedCategoryID
	})
	return predictions
}

func buildPrediction(c models.Correlation, triggerID, triggerName, predictedID, predictedName string, p Policy) models.Prediction {
	change := models.ChangeIncrease
	recommendation := fmt.Sprintf("You logged %s recently, a good moment to make time for %s", triggerName, predictedName)
	if c.Direction == models.DirectionNegative {
		change = models.ChangeDecrease
		recommendation = fmt.Sprintf("After %s, %s usually drops off. Plan a slot for %s in advance", triggerName, predictedName, predictedName)
	}

	return models.Prediction{
		TriggerCategoryID:     triggerID,
		TriggerCategoryName:   triggerName,
		PredictedCategoryID:   predictedID,
		PredictedCategoryName: predictedName,
		ExpectedChange:        change,
		Timeframe:             predictionTimeframe,
		Confidence:            math.Min(math.Abs(c.Coefficient)+0.1, p.PredictionConfidenceCap),
		Coefficient:           c.Coefficient,
		Recommendation:        recommendation,
	}
}
