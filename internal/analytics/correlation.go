package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// =============================================================================
// Statistical Algorithms
// =============================================================================

// pearson computes the Pearson correlation coefficient and a two-tailed
// p-value for two equally sized samples.
func pearson(xValues, yValues []float64) (r, pValue float64, err error) {
	n := len(xValues)
	if n != len(yValues) {
		return 0, 1, fmt.Errorf("samples must have same length: %d != %d", n, len(yValues))
	}
	if n < 3 {
		return 0, 1, &InsufficientDataError{Subject: "correlation", Reason: fmt.Sprintf("%d samples", n)}
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xValues[i]
		sumY += yValues[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := xValues[i] - meanX
		dy := yValues[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	if denomX == 0 || denomY == 0 {
		return 0, 1, &InsufficientDataError{Subject: "correlation", Reason: "zero variance"}
	}

	r = clamp(numerator/math.Sqrt(denomX*denomY), -1, 1)

	if math.Abs(r) >= 1.0 {
		pValue = 0
	} else {
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		// normal approximation of the t distribution
		pValue = 2 * (1 - normalCDF(math.Abs(t)))
	}

	return r, pValue, nil
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt(2)))
}

// =============================================================================
// Correlation Engine
// =============================================================================

// ComputeCorrelations correlates daily hours for every pair of categories.
// Pairs without enough data are reported as errors and never appear in the
// result; pairs below the minimum coefficient are silently omitted.
func ComputeCorrelations(series *DailySeries, categories []models.Category, p Policy) ([]models.Correlation, []error) {
	cats := correlationCategories(series, categories)
	vectors := make(map[string][]float64, len(cats))
	for _, c := range cats {
		vectors[c.ID] = series.HoursFor(c.ID)
	}

	var errs []error
	correlations := make([]models.Correlation, 0)
	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			a, b := cats[i], cats[j]
			union, overlap := dayCoverage(vectors[a.ID], vectors[b.ID])
			if overlap < p.MinCorrelationDays {
				errs = append(errs, &InsufficientDataError{
					Subject: a.ID + "/" + b.ID,
					Reason:  fmt.Sprintf("%d overlapping days below minimum %d", overlap, p.MinCorrelationDays),
				})
				continue
			}

			r, pValue, err := pearson(vectors[a.ID], vectors[b.ID])
			if err != nil {
				errs = append(errs, &InsufficientDataError{Subject: a.ID + "/" + b.ID, Reason: err.Error()})
				continue
			}
			if math.Abs(r) < p.MinAbsCoefficient {
				continue
			}

			strength := ClassifyStrength(r)
			correlations = append(correlations, models.Correlation{
				CategoryA:     a.ID,
				CategoryB:     b.ID,
				CategoryAName: a.Name,
				CategoryBName: b.Name,
				Coefficient:   r,
				Strength:      strength,
				Direction:     directionOf(r),
				Significance:  classifySignificance(strength, union, p),
				PValue:        pValue,
				SampleSize:    union,
				OverlapDays:   overlap,
			})
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		ai, aj := math.Abs(correlations[i].Coefficient), math.Abs(correlations[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		if correlations[i].CategoryA != correlations[j].CategoryA {
			return correlations[i].CategoryA < correlations[j].CategoryA
		}
		return correlations[i].CategoryB < correlations[j].CategoryB
	})

	return correlations, errs
}

func correlationCategories(series *DailySeries, categories []models.Category) []models.Category {
	cats := make([]models.Category, 0, len(categories))
	if len(categories) > 0 {
		cats = append(cats, categories...)
	} else {
		for _, id := range series.CategoryIDs() {
			cats = append(cats, models.Category{ID: id, Name: id})
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats
}

// dayCoverage counts days where either series has data and days where both do.
func dayCoverage(x, y []float64) (union, overlap int) {
	for i := range x {
		if x[i] > 0 || y[i] > 0 {
			union++
		}
		if x[i] > 0 && y[i] > 0 {
			overlap++
		}
	}
	return union, overlap
}

// ClassifyStrength buckets |r|.
func ClassifyStrength(r float64) models.Strength {
	abs := math.Abs(r)
	switch {
	case abs < 0.2:
		return models.StrengthVeryWeak
	case abs < 0.4:
		return models.StrengthWeak
	case abs < 0.6:
		return models.StrengthModerate
	case abs < 0.8:
		return models.StrengthStrong
	default:
		return models.StrengthVeryStrong
	}
}

func directionOf(r float64) models.Direction {
	if r < 0 {
		return models.DirectionNegative
	}
	return models.DirectionPositive
}

func classifySignificance(strength models.Strength, sampleSize int, p Policy) string {
	switch {
	case strength.Rank() >= models.StrengthModerate.Rank() && sampleSize >= p.NotableSampleSize:
		return models.SignificanceNotable
	case strength.Rank() >= models.StrengthWeak.Rank():
		return models.SignificanceSuggestive
	default:
		return models.SignificanceInconclusive
	}
}

// BuildMatrix lays the correlations out as a full symmetric matrix. The
// diagonal is 1 and pairs without a correlation are 0.
func BuildMatrix(categories []models.Category, correlations []models.Correlation) models.CorrelationMatrix {
	cats := append([]models.Category(nil), categories...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })

	index := make(map[string]int, len(cats))
	values := make([][]float64, len(cats))
	for i, c := range cats {
		index[c.ID] = i
		values[i] = make([]float64, len(cats))
		values[i][i] = 1
	}
	for _, c := range correlations {
		i, okA := index[c.CategoryA]
		j, okB := index[c.CategoryB]
		if !okA || !okB || i == j {
			continue
		}
		values[i][j] = c.Coefficient
		values[j][i] = c.Coefficient
	}

	return models.CorrelationMatrix{Categories: cats, Values: values}
}

// Summarize condenses an analysis into counts and extremes.
func Summarize(analysis models.CorrelationAnalysis) models.CorrelationSummary {
	summary := models.CorrelationSummary{
		Total:        len(analysis.Correlations),
		ByStrength:   make(map[models.Strength]int),
		DataPoints:   analysis.DataPoints,
		LastAnalyzed: analysis.LastAnalyzed,
	}

	var sumAbs float64
	for i := range analysis.Correlations {
		c := analysis.Correlations[i]
		summary.ByStrength[c.Strength]++
		sumAbs += math.Abs(c.Coefficient)
		if c.Direction == models.DirectionPositive {
			summary.Positive++
			if summary.StrongestPositive == nil || c.Coefficient > summary.StrongestPositive.Coefficient {
				summary.StrongestPositive = &analysis.Correlations[i]
			}
		} else {
			summary.Negative++
			if summary.StrongestNegative == nil || c.Coefficient < summary.StrongestNegative.Coefficient {
				summary.StrongestNegative = &analysis.Correlations[i]
			}
		}
	}
	if summary.Total > 0 {
		summary.MeanAbsCoeff = sumAbs / float64(summary.Total)
	}
	return summary
}

// ActiveDayCount counts the window days with any categorized activity.
func ActiveDayCount(series *DailySeries) int {
	n := 0
	for _, d := range series.Days {
		if len(d.Counts) > 0 {
			n++
		}
	}
	return n
}
