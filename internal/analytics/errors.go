package analytics

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError marks a statistic that was omitted because its
// inputs could not support it.
type InsufficientDataError struct {
	Subject string
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Subject, e.Reason)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// InvalidCategoryError marks an activity that references an unknown category.
type InvalidCategoryError struct {
	ActivityID string
	CategoryID string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("activity %s references unknown category %s", e.ActivityID, e.CategoryID)
}

// InvalidActivityError marks an activity whose fields break the record invariants.
type InvalidActivityError struct {
	ActivityID string
	Reason     string
}

func (e *InvalidActivityError) Error() string {
	return fmt.Sprintf("activity %s is invalid: %s", e.ActivityID, e.Reason)
}

// ErrConflict is matched by every ConflictError.
var ErrConflict = errors.New("conflict")

// ConflictError reports a concurrent mutation of the same alert or suggestion.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("conflicting %s update", e.Resource)
	}
	return fmt.Sprintf("conflicting %s update for %s", e.Resource, e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// SkipReason returns a short metrics label for a skipped record error.
func SkipReason(err error) string {
	var invalidCategory *InvalidCategoryError
	var invalidActivity *InvalidActivityError
	switch {
	case errors.As(err, &invalidCategory):
		return "invalid_category"
	case errors.As(err, &invalidActivity):
		return "invalid_activity"
	default:
		return "other"
	}
}
