package analytics

import (
	"testing"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var running = category("run", "Running", "physical_health")

func TestAssessRiskFadingHabit(t *testing.T) {
	// a daily habit that stopped 25 days ago
	series := Aggregate(dailyAt("run", "Run", 89, 25, 7, 30), 90, testNow)

	pred := AssessRisk(series, running, DefaultPolicy())

	assert.Equal(t, "run", pred.CategoryID)
	assert.Equal(t, "Running", pred.CategoryName)
	assert.True(t, pred.HasHistory)
	assert.Equal(t, 25, pred.DaysSinceLastActivity)
	assert.InDelta(t, -55.56, pred.FrequencyTrendPct, 0.01)
	assert.InDelta(t, 0.0, pred.DurationTrendPct, 1e-9)
	assert.Equal(t, 44, pred.ConsistencyScore)
	assert.Equal(t, 53, pred.RiskScore)
	assert.Equal(t, models.RiskHigh, pred.RiskLevel)

	require.NotEmpty(t, pred.Recommendations)
	assert.Equal(t, "Log a short Running session today, even ten minutes keeps the habit alive", pred.Recommendations[0])
}

func TestAssessRiskHealthyHabit(t *testing.T) {
	series := Aggregate(dailyAt("run", "Run", 89, 0, 7, 30), 90, testNow)

	pred := AssessRisk(series, running, DefaultPolicy())

	assert.Equal(t, 0, pred.RiskScore)
	assert.Equal(t, models.RiskLow, pred.RiskLevel)
	assert.Equal(t, 100, pred.ConsistencyScore)
	assert.Equal(t, 0, pred.DaysSinceLastActivity)
	assert.Equal(t, []string{"Keep your current Running routine going"}, pred.Recommendations)
}

func TestAssessRiskNeverActive(t *testing.T) {
	series := Aggregate(nil, 90, testNow)

	pred := AssessRisk(series, running, DefaultPolicy())

	assert.False(t, pred.HasHistory)
	assert.Equal(t, 90, pred.DaysSinceLastActivity)
	assert.Equal(t, 0.0, pred.FrequencyTrendPct)
	assert.Equal(t, 0.0, pred.DurationTrendPct)
	assert.Equal(t, 45, pred.RiskScore)
	assert.Equal(t, models.RiskMedium, pred.RiskLevel)
	require.NotEmpty(t, pred.Recommendations)
	assert.Equal(t, "Pair Running with an existing daily routine", pred.Recommendations[0])
}

func TestAssessRiskNewHabit(t *testing.T) {
	// only started in the recent half
	series := Aggregate(dailyAt("run", "Run", 20, 0, 7, 30), 90, testNow)

	pred := AssessRisk(series, running, DefaultPolicy())

	assert.Equal(t, 100.0, pred.FrequencyTrendPct)
	assert.Equal(t, 0.0, pred.DurationTrendPct)
	assert.Equal(t, 47, pred.ConsistencyScore)
}

func TestAssessRiskStaysInRangeForTinyWindows(t *testing.T) {
	for _, window := range []int{1, 2, 3} {
		series := Aggregate(dailyAt("run", "Run", 2, 0, 7, 30), window, testNow)
		pred := AssessRisk(series, running, DefaultPolicy())
		assert.GreaterOrEqual(t, pred.RiskScore, 0, "window %d", window)
		assert.LessOrEqual(t, pred.RiskScore, 100, "window %d", window)
		assert.NotEmpty(t, pred.Recommendations, "window %d", window)
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, models.RiskLow, ClassifyRisk(0))
	assert.Equal(t, models.RiskLow, ClassifyRisk(24))
	assert.Equal(t, models.RiskMedium, ClassifyRisk(25))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(50))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(74))
	assert.Equal(t, models.RiskCritical, ClassifyRisk(75))
	assert.Equal(t, models.RiskCritical, ClassifyRisk(100))
}

func TestAssessAllAndSummarize(t *testing.T) {
	activities := append(dailyAt("run", "Run", 89, 25, 7, 30), dailyAt("read", "Read", 89, 0, 21, 30)...)
	cats := []models.Category{running, category("read", "Reading", ""), category("piano", "Piano", "")}
	series := Aggregate(activities, 90, testNow, WithKnownCategories(cats))

	predictions, errs := AssessAll(series, cats, DefaultPolicy())
	require.Empty(t, errs)
	require.Len(t, predictions, 3)

	summary := SummarizeRisk(predictions, testNow)

	assert.Equal(t, "run", summary.Predictions[0].CategoryID)
	assert.Equal(t, "piano", summary.Predictions[1].CategoryID)
	assert.Equal(t, "read", summary.Predictions[2].CategoryID)
	require.NotNil(t, summary.HighestRisk)
	assert.Equal(t, "run", summary.HighestRisk.CategoryID)
	assert.Equal(t, 1, summary.AtRiskCount)
	assert.Equal(t, 1, summary.CountsByLevel[models.RiskHigh])
	assert.Equal(t, 1, summary.CountsByLevel[models.RiskMedium])
	assert.Equal(t, 1, summary.CountsByLevel[models.RiskLow])
	assert.Equal(t, 0, summary.CountsByLevel[models.RiskCritical])
	assert.InDelta(t, (53.0+45.0+0.0)/3.0, summary.AverageScore, 1e-9)
	assert.Equal(t, testNow, summary.AssessedAt)
}

func TestSummarizeRiskEmpty(t *testing.T) {
	summary := SummarizeRisk(nil, testNow)

	assert.Empty(t, summary.Predictions)
	assert.Nil(t, summary.HighestRisk)
	assert.Equal(t, 0.0, summary.AverageScore)
	assert.Len(t, summary.CountsByLevel, 4)
}
