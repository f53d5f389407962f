package analytics

import (
	"fmt"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/google/uuid"
)

// Alert lifecycle: created unread, marked read, dismissed (deleted). The
// intervention flag flips once and never back.

// ShouldAlert reports whether a prediction warrants a new alert given the
// user's current alerts. At most one unread alert exists per type and category.
func ShouldAlert(pred models.RiskPrediction, existing []models.Alert) bool {
	if !pred.RiskLevel.Alerting() {
		return false
	}
	for _, a := range existing {
		if !a.Read && a.Type == models.AlertHabitDegradation && a.CategoryID == pred.CategoryID {
			return false
		}
	}
	return true
}

// NewAlert builds an unread degradation alert carrying the prediction.
func NewAlert(userID string, pred models.RiskPrediction, now time.Time) models.Alert {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	title := fmt.Sprintf("%s habit at risk", pred.CategoryName)
	if pred.RiskLevel == models.RiskCritical {
		title = fmt.Sprintf("%s habit is slipping away", pred.CategoryName)
	}

	return models.Alert{
		ID:         id.String(),
		UserID:     userID,
		Type:       models.AlertHabitDegradation,
		CategoryID: pred.CategoryID,
		Title:      title,
		Message:    alertMessage(pred),
		ActionData: models.AlertActionData{RiskPrediction: pred},
		CreatedAt:  now,
	}
}

func alertMessage(pred models.RiskPrediction) string {
	switch {
	case !pred.HasHistory:
		return fmt.Sprintf("There's no %s activity in this period. Risk score %d/100.", pred.CategoryName, pred.RiskScore)
	case pred.DaysSinceLastActivity >= 7:
		return fmt.Sprintf("It's been %d days since your last %s activity. Risk score %d/100.",
			pred.DaysSinceLastActivity, pred.CategoryName, pred.RiskScore)
	case pred.FrequencyTrendPct < 0:
		return fmt.Sprintf("Your %s activity dropped %.0f%% recently. Risk score %d/100.",
			pred.CategoryName, -pred.FrequencyTrendPct, pred.RiskScore)
	default:
		return fmt.Sprintf("Your %s routine is becoming less consistent. Risk score %d/100.", pred.CategoryName, pred.RiskScore)
	}
}

// MarkRead transitions an alert to read. It reports whether anything changed.
func MarkRead(alert models.Alert, now time.Time) (models.Alert, bool) {
	if alert.Read {
		return alert, false
	}
	alert.Read = true
	readAt := now
	alert.ReadAt = &readAt
	return alert, true
}

// TriggerIntervention sets the intervention flag and materializes concrete
// steps from the alert's recommendations. Triggering twice is a no-op.
func TriggerIntervention(alert models.Alert, now time.Time, p Policy) (models.Alert, bool) {
	if alert.ActionData.InterventionTriggered {
		return alert, false
	}

	steps := make([]string, 0, p.MaxInterventionSteps)
	for _, r := range alert.ActionData.Recommendations {
		if len(steps) == p.MaxInterventionSteps {
			break
		}
		steps = append(steps, r)
	}
	if len(steps) == 0 {
		steps = append(steps, fmt.Sprintf("Log one %s session today", alert.ActionData.CategoryName))
	}

	triggeredAt := now
	alert.ActionData.InterventionTriggered = true
	alert.ActionData.InterventionSteps = steps
	alert.ActionData.InterventionTriggeredAt = &triggeredAt
	return alert, true
}
