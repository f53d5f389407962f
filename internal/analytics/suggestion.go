package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/google/uuid"
)

// SuggestionContext is the moment-in-time input for suggestion rules.
type SuggestionContext struct {
	UserID string
	Now    time.Time
	// Today holds today's activities, in start order.
	Today []Occurrence
	// Existing suggestions are used for deduplication.
	Existing      []models.Suggestion
	CategoryNames map[string]string
	// NewID overrides id generation; defaults to UUIDv7.
	NewID func() string
}

// TodayFrom extracts the occurrences logged today up to now.
func TodayFrom(series *DailySeries) []Occurrence {
	var out []Occurrence
	for _, o := range series.OccurrencesOn(series.Today()) {
		if !o.Start.After(series.Now) {
			out = append(out, o)
		}
	}
	return out
}

type suggestionKey struct {
	kind       models.SuggestionType
	categoryID string
}

type suggestionBuilder struct {
	ctx    SuggestionContext
	policy Policy
	seen   map[suggestionKey]bool
	out    []models.Suggestion
}

// GenerateSuggestions applies the sequence, daily and weekly rules to the
// pattern model. Suggestions already pending for the same type and category
// are not generated again.
func GenerateSuggestions(model models.PatternModel, sc SuggestionContext, p Policy) []models.Suggestion {
	if sc.NewID == nil {
		sc.NewID = newSuggestionID
	}
	b := &suggestionBuilder{
		ctx:    sc,
		policy: p,
		seen:   make(map[suggestionKey]bool),
		out:    make([]models.Suggestion, 0),
	}
	for _, s := range sc.Existing {
		if !s.Read && !s.Expired(sc.Now) {
			b.seen[suggestionKey{kind: s.Type, categoryID: s.CategoryID}] = true
		}
	}

	b.sequenceRule(model)
	b.dailyRule(model)
	b.weeklyRule(model)
	return b.out
}

func newSuggestionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (b *suggestionBuilder) sequenceRule(model models.PatternModel) {
	for _, seq := range model.HabitSequences {
		if len(seq.Sequence) < 2 || len(seq.CategoryIDs) < 2 {
			continue
		}
		predecessor, successor := seq.Sequence[0], seq.Sequence[1]

		lastPredecessor := -1
		for i, o := range b.ctx.Today {
			if o.Label() == predecessor {
				lastPredecessor = i
			}
		}
		if lastPredecessor < 0 {
			continue
		}
		followed := false
		for _, o := range b.ctx.Today[lastPredecessor+1:] {
			if o.Label() == successor {
				followed = true
				break
			}
		}
		if followed {
			continue
		}

		b.add(models.Suggestion{
			CategoryID: seq.CategoryIDs[1],
			Type:       models.SuggestionSequence,
			Title:      fmt.Sprintf("Next up: %s", successor),
			Message: fmt.Sprintf("You usually do %s after %s (%.0f%% of the time)",
				successor, predecessor, seq.Frequency*100),
			Confidence: seq.Frequency,
			Timing:     models.TimingSequence,
			ActionType: models.ActionLogActivity,
			ExpiresAt:  b.ctx.Now.Add(b.policy.SequenceSuggestionTTL),
		})
	}
}

func (b *suggestionBuilder) dailyRule(model models.PatternModel) {
	now := b.ctx.Now
	for _, cp := range sortedCategoryPatterns(model) {
		if cp.Frequency != models.FrequencyDaily || cp.PeakHour < 0 || b.loggedToday(cp.CategoryID) {
			continue
		}
		name := b.name(cp.CategoryID)
		peakStart := startOfDay(now).Add(time.Duration(cp.PeakHour) * time.Hour)
		peakEnd := peakStart.Add(time.Hour)

		switch {
		case !now.Before(peakEnd):
			b.add(models.Suggestion{
				CategoryID: cp.CategoryID,
				Type:       models.SuggestionHabitResumption,
				Title:      fmt.Sprintf("Don't break your %s habit", name),
				Message: fmt.Sprintf("You usually log %s around %s and haven't yet today",
					name, formatHour(cp.PeakHour)),
				Confidence: cp.ActiveDayRatio,
				Timing:     models.TimingImmediate,
				ActionType: models.ActionLogActivity,
				ExpiresAt:  endOfDay(now),
			})
		case !now.Before(peakStart.Add(-b.policy.UpcomingLeadTime)):
			b.add(models.Suggestion{
				CategoryID: cp.CategoryID,
				Type:       models.SuggestionUpcomingHabit,
				Title:      fmt.Sprintf("%s time is coming up", name),
				Message:    fmt.Sprintf("You usually start %s around %s", name, formatHour(cp.PeakHour)),
				Confidence: cp.ActiveDayRatio,
				Timing:     models.TimingUpcoming,
				ActionType: models.ActionPrepareActivity,
				ExpiresAt:  peakEnd,
			})
		}
	}
}

func (b *suggestionBuilder) weeklyRule(model models.PatternModel) {
	now := b.ctx.Now
	for _, cp := range sortedCategoryPatterns(model) {
		if cp.Frequency != models.FrequencyWeekly || cp.PreferredWeekday != now.Weekday() || cp.PreferredWeekdayRatio <= 0 {
			continue
		}
		if b.loggedToday(cp.CategoryID) {
			continue
		}
		name := b.name(cp.CategoryID)
		b.add(models.Suggestion{
			CategoryID: cp.CategoryID,
			Type:       models.SuggestionWeeklyHabit,
			Title:      fmt.Sprintf("It's your %s day", name),
			Message: fmt.Sprintf("You've done %s on %.0f%% of past %ss",
				name, cp.PreferredWeekdayRatio*100, now.Weekday()),
			Confidence: cp.PreferredWeekdayRatio,
			Timing:     models.TimingWeekly,
			ActionType: models.ActionReminder,
			ExpiresAt:  endOfDay(now),
		})
	}
}

func (b *suggestionBuilder) add(s models.Suggestion) {
	key := suggestionKey{kind: s.Type, categoryID: s.CategoryID}
	if b.seen[key] {
		return
	}
	b.seen[key] = true

	s.ID = b.ctx.NewID()
	s.UserID = b.ctx.UserID
	s.Confidence = clamp(s.Confidence, 0, 1)
	s.Priority = b.policy.priority(s.Confidence)
	s.CreatedAt = b.ctx.Now
	b.out = append(b.out, s)
}

func (b *suggestionBuilder) loggedToday(categoryID string) bool {
	for _, o := range b.ctx.Today {
		if o.CategoryID == categoryID {
			return true
		}
	}
	return false
}

func (b *suggestionBuilder) name(categoryID string) string {
	if n, ok := b.ctx.CategoryNames[categoryID]; ok && n != "" {
		return n
	}
	return categoryID
}

func sortedCategoryPatterns(model models.PatternModel) []models.CategoryPattern {
	out := make([]models.CategoryPattern, 0, len(model.CategoryPatterns))
	for _, cp := range model.CategoryPatterns {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

// formatHour formats an hour (0-23) as a readable string
func formatHour(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}
