package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

type timeBand struct {
	name     models.TimeBand
	from, to int // inclusive hours
}

var timeBands = []timeBand{
	{name: models.TimeBandMorning, from: 6, to: 11},
	{name: models.TimeBandAfternoon, from: 12, to: 17},
	{name: models.TimeBandEvening, from: 18, to: 23},
}

// DetectPatterns builds the pattern model for a series. Categories without
// any activity in the window still get a (rare) category pattern.
func DetectPatterns(series *DailySeries, categories []models.Category, p Policy) models.PatternModel {
	model := models.PatternModel{
		DailyPatterns:    make(map[models.TimeBand]models.DailyPattern, len(timeBands)),
		CategoryPatterns: make(map[string]models.CategoryPattern),
		HabitSequences:   mineSequences(series, p),
		WeeklyPatterns:   weeklyPattern(series),
		WindowDays:       series.WindowDays(),
		LastAnalyzed:     series.Now,
	}

	for _, b := range timeBands {
		model.DailyPatterns[b.name] = dailyPattern(series, b, p)
	}

	for _, id := range categoryUniverse(series, categories) {
		model.CategoryPatterns[id] = categoryPattern(series, id, p)
	}

	return model
}

// categoryUniverse merges the known categories with any category seen in the series.
func categoryUniverse(series *DailySeries, categories []models.Category) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range categories {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	for _, id := range series.CategoryIDs() {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func dailyPattern(series *DailySeries, b timeBand, p Policy) models.DailyPattern {
	hoursByCategory := make(map[string]float64)
	for _, o := range series.Occurrences {
		if o.StartHour >= b.from && o.StartHour <= b.to {
			hoursByCategory[o.CategoryID] += o.Minutes / 60
		}
	}

	ranked := make([]string, 0, len(hoursByCategory))
	for id := range hoursByCategory {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		hi, hj := hoursByCategory[ranked[i]], hoursByCategory[ranked[j]]
		if hi != hj {
			return hi > hj
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > p.PreferredCategoriesTopN {
		ranked = ranked[:p.PreferredCategoriesTopN]
	}

	bandMax := 0
	for h := b.from; h <= b.to; h++ {
		if series.HourHistogram[h] > bandMax {
			bandMax = series.HourHistogram[h]
		}
	}
	peaks := make([]int, 0)
	if bandMax > 0 {
		for h := b.from; h <= b.to; h++ {
			if float64(series.HourHistogram[h]) >= p.PeakHourRatio*float64(bandMax) {
				peaks = append(peaks, h)
			}
		}
	}

	activeDays := 0
	for _, d := range series.Days {
		for h := b.from; h <= b.to; h++ {
			if d.HourCounts[h] > 0 {
				activeDays++
				break
			}
		}
	}

	return models.DailyPattern{
		PreferredCategories: ranked,
		PeakHours:           peaks,
		Consistency:         float64(activeDays) / float64(series.WindowDays()),
	}
}

func weeklyPattern(series *DailySeries) models.WeeklyPattern {
	var wp models.WeeklyPattern
	var weekdayTotal, weekendTotal, weekdayDays, weekendDays int

	for _, d := range series.Days {
		wd := d.Date.Weekday()
		wp.DayTotals[wd] += d.Total
		if wd == time.Saturday || wd == time.Sunday {
			weekendTotal += d.Total
			weekendDays++
		} else {
			weekdayTotal += d.Total
			weekdayDays++
		}
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wp.DayTotals[wd] > wp.DayTotals[wp.MostActiveDay] {
			wp.MostActiveDay = wd
		}
		if wp.DayTotals[wd] < wp.DayTotals[wp.LeastActiveDay] {
			wp.LeastActiveDay = wd
		}
	}

	if weekdayDays > 0 {
		wp.WeekdayAvg = float64(weekdayTotal) / float64(weekdayDays)
	}
	if weekendDays > 0 {
		wp.WeekendAvg = float64(weekendTotal) / float64(weekendDays)
	}
	return wp
}

func categoryPattern(series *DailySeries, categoryID string, p Policy) models.CategoryPattern {
	window := series.WindowDays()
	active := series.ActiveDays(categoryID)
	ratio := float64(active) / float64(window)

	cp := models.CategoryPattern{
		CategoryID:     categoryID,
		Frequency:      classifyFrequency(ratio, p),
		ActiveDayRatio: ratio,
		Trend:          classifyTrend(series.HoursFor(categoryID), p.TrendChangeRatio),
		PeakHour:       -1,
	}

	var hourCounts [24]int
	var totalMinutes float64
	n := 0
	for _, o := range series.Occurrences {
		if o.CategoryID != categoryID {
			continue
		}
		hourCounts[o.StartHour]++
		totalMinutes += o.Minutes
		n++
	}
	if n > 0 {
		cp.AvgDurationMinutes = totalMinutes / float64(n)
		cp.PeakHour = 0
		for h := 1; h < 24; h++ {
			if hourCounts[h] > hourCounts[cp.PeakHour] {
				cp.PeakHour = h
			}
		}
	}

	var weekdayActive, weekdaySeen [7]int
	for _, d := range series.Days {
		wd := d.Date.Weekday()
		weekdaySeen[wd]++
		if d.Counts[categoryID] > 0 {
			weekdayActive[wd]++
		}
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if weekdaySeen[wd] == 0 {
			continue
		}
		r := float64(weekdayActive[wd]) / float64(weekdaySeen[wd])
		if r > cp.PreferredWeekdayRatio {
			cp.PreferredWeekday = wd
			cp.PreferredWeekdayRatio = r
		}
	}

	cp.CurrentStreakDays, cp.LongestStreakDays = streaks(series, categoryID)
	return cp
}

func classifyFrequency(activeRatio float64, p Policy) models.Frequency {
	switch {
	case activeRatio >= p.DailyFrequencyRatio:
		return models.FrequencyDaily
	case activeRatio >= p.WeeklyFrequencyRatio:
		return models.FrequencyWeekly
	default:
		return models.FrequencyRare
	}
}

// classifyTrend compares the mean of the most recent third of values with
// the earliest third.
func classifyTrend(values []float64, changeRatio float64) models.Trend {
	third := len(values) / 3
	if third == 0 {
		return models.TrendStable
	}
	early := mean(values[:third])
	recent := mean(values[len(values)-third:])

	if early == 0 {
		if recent > 0 {
			return models.TrendIncreasing
		}
		return models.TrendStable
	}

	change := (recent - early) / early
	switch {
	case change >= changeRatio:
		return models.TrendIncreasing
	case change <= -changeRatio:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// streaks returns the current and longest runs of consecutive active days.
// A run that ended yesterday still counts as current.
func streaks(series *DailySeries, categoryID string) (current, longest int) {
	run := 0
	for _, d := range series.Days {
		if d.Counts[categoryID] > 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	i := series.Today()
	if i >= 0 && series.Days[i].Counts[categoryID] == 0 {
		i--
	}
	for ; i >= 0 && series.Days[i].Counts[categoryID] > 0; i-- {
		current++
	}
	return current, longest
}

type sequenceKey struct {
	from, to string
}

// mineSequences counts, per day, adjacent activity pairs. A pair is counted
// at most once per day so frequency stays within [0, 1].
func mineSequences(series *DailySeries, p Policy) []models.HabitSequence {
	pairDays := make(map[sequenceKey]int)
	pairCategories := make(map[sequenceKey][2]string)
	labelDays := make(map[string]int)

	for _, day := range occurrencesByDay(series) {
		labels := make(map[string]bool)
		pairs := make(map[sequenceKey]bool)
		for i, o := range day {
			labels[o.Label()] = true
			if i == 0 {
				continue
			}
			prev := day[i-1]
			if prev.Label() == o.Label() {
				continue
			}
			key := sequenceKey{from: prev.Label(), to: o.Label()}
			pairs[key] = true
			if _, ok := pairCategories[key]; !ok {
				pairCategories[key] = [2]string{prev.CategoryID, o.CategoryID}
			}
		}
		for l := range labels {
			labelDays[l]++
		}
		for k := range pairs {
			pairDays[k]++
		}
	}

	sequences := make([]models.HabitSequence, 0)
	for key, count := range pairDays {
		if count < p.MinSequenceOccurrences {
			continue
		}
		freq := float64(count) / float64(labelDays[key.from])
		if freq < p.MinSequenceFrequency {
			continue
		}
		cats := pairCategories[key]
		sequences = append(sequences, models.HabitSequence{
			Sequence:    []string{key.from, key.to},
			CategoryIDs: []string{cats[0], cats[1]},
			Occurrences: count,
			Frequency:   freq,
		})
	}

	sort.Slice(sequences, func(i, j int) bool {
		a, b := sequences[i], sequences[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		if a.Sequence[0] != b.Sequence[0] {
			return a.Sequence[0] < b.Sequence[0]
		}
		return a.Sequence[1] < b.Sequence[1]
	})
	return sequences
}

func occurrencesByDay(series *DailySeries) [][]Occurrence {
	days := make([][]Occurrence, series.WindowDays())
	for _, o := range series.Occurrences {
		days[o.DayIndex] = append(days[o.DayIndex], o)
	}
	return days
}

// OverallStrength scores how settled the user's patterns are, 0 to 100.
func OverallStrength(model models.PatternModel, p Policy) int {
	var consistency float64
	if len(model.DailyPatterns) > 0 {
		for _, dp := range model.DailyPatterns {
			consistency += dp.Consistency
		}
		consistency /= float64(len(model.DailyPatterns))
	}

	stability := 1.0
	if len(model.CategoryPatterns) > 0 {
		steady := 0
		for _, cp := range model.CategoryPatterns {
			if cp.Trend != models.TrendDecreasing {
				steady++
			}
		}
		stability = float64(steady) / float64(len(model.CategoryPatterns))
	}

	totalWeight := p.StrengthConsistencyWeight + p.StrengthStabilityWeight
	if totalWeight <= 0 {
		return 0
	}
	score := 100 * (p.StrengthConsistencyWeight*consistency + p.StrengthStabilityWeight*stability) / totalWeight
	return int(math.Round(clamp(score, 0, 100)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
