package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidID indicates a path id that is not a UUID
	ErrInvalidID = errors.New("invalid id")
	// ErrFutureID indicates a UUIDv7 minted implausibly far in the future
	ErrFutureID = errors.New("id timestamp is in the future")
)

// maxClockSkew bounds how far ahead a UUIDv7 timestamp may be.
const maxClockSkew = time.Minute

// ValidateID checks a suggestion or alert id. Ids are UUIDv7 when minted by
// this service; rows created elsewhere may carry other versions.
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if parsed.Version() != 7 {
		return nil
	}

	minted := IDTime(parsed)
	if minted.After(time.Now().Add(maxClockSkew)) {
		return fmt.Errorf("%w: %s", ErrFutureID, minted.Format(time.RFC3339))
	}
	return nil
}

// IDTime returns the creation instant embedded in a UUIDv7.
func IDTime(id uuid.UUID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec)
}
