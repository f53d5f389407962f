// Package events publishes domain events produced by analysis runs.
package events

import (
	"context"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
)

// Routing keys
const (
	AlertCreated = "habit.alert.created"
)

// AlertEvent is the body of an AlertCreated message.
type AlertEvent struct {
	Event      string       `json:"event"`
	OccurredAt time.Time    `json:"occurred_at"`
	Alert      models.Alert `json:"alert"`
}

// Publisher delivers events. Publish errors are reported to the caller,
// which logs them; they never fail an analysis run.
type Publisher interface {
	PublishAlertCreated(ctx context.Context, alert models.Alert) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishAlertCreated(context.Context, models.Alert) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
