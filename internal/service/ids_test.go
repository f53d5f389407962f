package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// uuidV7At builds a UUIDv7 whose 48-bit millisecond prefix is t.
func uuidV7At(t time.Time) uuid.UUID {
	var id uuid.UUID
	ms := uint64(t.UnixMilli())
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}
	id[6] = 0x70
	id[8] = 0x80
	id[15] = 0x01
	return id
}

func TestValidateID(t *testing.T) {
	v7, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("NewV7: %v", err)
	}

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"fresh v7", v7.String(), nil},
		{"v4 accepted", uuid.New().String(), nil},
		{"past v7", uuidV7At(time.Now().Add(-24 * time.Hour)).String(), nil},
		{"slightly ahead", uuidV7At(time.Now().Add(30 * time.Second)).String(), nil},
		{"far future", uuidV7At(time.Now().Add(time.Hour)).String(), ErrFutureID},
		{"garbage", "not-a-uuid", ErrInvalidID},
		{"empty", "", ErrInvalidID},
		{"truncated", "019471a0-0000-7000-8000-", ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.want == nil {
				if err != nil {
					t.Errorf("ValidateID(%q) = %v, want nil", tt.id, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestIDTime(t *testing.T) {
	at := time.Date(2026, 3, 18, 7, 30, 0, 0, time.UTC)
	got := IDTime(uuidV7At(at))
	if !got.Equal(at) {
		t.Errorf("IDTime = %v, want %v", got, at)
	}
}
