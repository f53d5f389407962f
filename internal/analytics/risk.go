package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

type riskTerm struct {
	name         string
	contribution float64
}

// AssessRisk scores how likely a category's habit is degrading by comparing
// the two halves of the window.
func AssessRisk(series *DailySeries, category models.Category, p Policy) models.RiskPrediction {
	n := series.WindowDays()
	half := n / 2
	early := series.Days[n-2*half : n-half]
	recent := series.Days[n-half:]

	earlyCount, earlyHours := halfTotals(early, category.ID)
	recentCount, recentHours := halfTotals(recent, category.ID)

	pred := models.RiskPrediction{
		CategoryID:   category.ID,
		CategoryName: displayName(category.Name, category.ID),
	}

	switch {
	case earlyCount > 0:
		pred.FrequencyTrendPct = float64(recentCount-earlyCount) / float64(earlyCount) * 100
	case recentCount > 0:
		pred.FrequencyTrendPct = 100
	}

	if earlyCount > 0 {
		earlyMean := earlyHours / float64(earlyCount)
		switch {
		case recentCount == 0:
			pred.DurationTrendPct = -100
		case earlyMean > 0:
			recentMean := recentHours / float64(recentCount)
			pred.DurationTrendPct = (recentMean - earlyMean) / earlyMean * 100
		}
	}

	var consistency float64
	if half > 0 {
		activeRecent := 0
		for _, d := range recent {
			if d.Counts[category.ID] > 0 {
				activeRecent++
			}
		}
		consistency = float64(activeRecent) / float64(half) * 100
	}
	pred.ConsistencyScore = int(math.Round(consistency))

	pred.DaysSinceLastActivity = n
	for i := series.Today(); i >= 0; i-- {
		if series.Days[i].Counts[category.ID] > 0 {
			pred.DaysSinceLastActivity = series.Today() - i
			pred.HasHistory = true
			break
		}
	}

	w := p.RiskWeights
	terms := []riskTerm{
		{name: TermFrequency, contribution: w.Frequency * clamp(-pred.FrequencyTrendPct, 0, 100)},
		{name: TermDuration, contribution: w.Duration * clamp(-pred.DurationTrendPct, 0, 100)},
		{name: TermConsistency, contribution: w.Consistency * clamp(100-consistency, 0, 100)},
		{name: TermInactivity, contribution: w.Inactivity * clamp(float64(pred.DaysSinceLastActivity)*10, 0, 100)},
	}

	var score float64
	for _, t := range terms {
		if !math.IsNaN(t.contribution) {
			score += t.contribution
		}
	}
	pred.RiskScore = int(math.Round(clamp(score, 0, 100)))
	pred.RiskLevel = ClassifyRisk(pred.RiskScore)
	pred.Recommendations = recommend(terms, pred.CategoryName, p)
	return pred
}

func halfTotals(days []Day, categoryID string) (count int, hours float64) {
	for _, d := range days {
		count += d.Counts[categoryID]
		hours += d.Hours[categoryID]
	}
	return count, hours
}

// ClassifyRisk buckets a risk score.
func ClassifyRisk(score int) models.RiskLevel {
	switch {
	case score >= 75:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 25:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// recommend picks catalog entries for every term that contributed at least
// the configured floor, strongest term first.
func recommend(terms []riskTerm, categoryName string, p Policy) []string {
	ranked := make([]riskTerm, 0, len(terms))
	for _, t := range terms {
		if t.contribution >= p.RecommendationFloor {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].contribution > ranked[j].contribution })

	keys := make([]string, 0, len(ranked))
	for _, t := range ranked {
		keys = append(keys, t.name)
	}
	if len(keys) == 0 {
		keys = append(keys, TermMaintain)
	}

	out := make([]string, 0)
	for _, k := range keys {
		for _, tmpl := range p.Recommendations[k] {
			out = append(out, strings.ReplaceAll(tmpl, "{category}", categoryName))
		}
	}
	return out
}

// AssessAll runs AssessRisk for each category. A failure in one category is
// reported and does not affect the others.
func AssessAll(series *DailySeries, categories []models.Category, p Policy) ([]models.RiskPrediction, []error) {
	var errs []error
	predictions := make([]models.RiskPrediction, 0, len(categories))
	for _, c := range categories {
		pred, err := assessSafely(series, c, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		predictions = append(predictions, pred)
	}
	return predictions, errs
}

func assessSafely(series *DailySeries, c models.Category, p Policy) (pred models.RiskPrediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("risk assessment for category %s panicked: %v", c.ID, r)
		}
	}()
	return AssessRisk(series, c, p), nil
}

// SummarizeRisk orders predictions by score and tallies them per level.
func SummarizeRisk(predictions []models.RiskPrediction, assessedAt time.Time) models.RiskSummary {
	sorted := append([]models.RiskPrediction(nil), predictions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RiskScore != sorted[j].RiskScore {
			return sorted[i].RiskScore > sorted[j].RiskScore
		}
		return sorted[i].CategoryID < sorted[j].CategoryID
	})

	summary := models.RiskSummary{
		Predictions: sorted,
		CountsByLevel: map[models.RiskLevel]int{
			models.RiskLow:      0,
			models.RiskMedium:   0,
			models.RiskHigh:     0,
			models.RiskCritical: 0,
		},
		AssessedAt: assessedAt,
	}
	if len(sorted) == 0 {
		return summary
	}

	var total int
	for _, pred := range sorted {
		summary.CountsByLevel[pred.RiskLevel]++
		total += pred.RiskScore
		if pred.RiskLevel.Alerting() {
			summary.AtRiskCount++
		}
	}
	summary.AverageScore = float64(total) / float64(len(sorted))
	summary.HighestRisk = &summary.Predictions[0]
	return summary
}
