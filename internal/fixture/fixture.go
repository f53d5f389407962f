// Package fixture loads activity histories from YAML for offline analysis.
//
//	user_id: demo
//	now: 2026-03-18T20:00:00Z
//	categories:
//	  - {id: run, name: Running, kind: physical_health}
//	activities:
//	  - category_id: run
//	    start_time: 2026-03-17T07:00:00Z
//	    duration_minutes: 30
//	routines:
//	  - {category_id: run, from_days_ago: 89, to_days_ago: 25, hour: 7, duration_minutes: 30}
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonnyWalker81/habitpulse/backend/internal/models"
	"github.com/JonnyWalker81/habitpulse/backend/internal/repository/memory"
	"gopkg.in/yaml.v3"
)

// Fixture is one user's categories and activity history.
type Fixture struct {
	UserID     string                  `yaml:"user_id"`
	Now        time.Time               `yaml:"now"`
	Categories []models.Category       `yaml:"categories"`
	Activities []models.ActivityRecord `yaml:"activities"`
	Routines   []Routine               `yaml:"routines"`
}

// Routine expands to one activity per day, every EveryDays days, between
// FromDaysAgo and ToDaysAgo relative to the fixture's now.
type Routine struct {
	CategoryID      string  `yaml:"category_id"`
	Description     string  `yaml:"description"`
	FromDaysAgo     int     `yaml:"from_days_ago"`
	ToDaysAgo       int     `yaml:"to_days_ago"`
	EveryDays       int     `yaml:"every_days"`
	Hour            int     `yaml:"hour"`
	Minute          int     `yaml:"minute"`
	DurationMinutes float64 `yaml:"duration_minutes"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if f.UserID == "" {
		return errors.New("fixture: user_id is required")
	}
	for i, r := range f.Routines {
		switch {
		case r.CategoryID == "":
			return fmt.Errorf("fixture: routine %d: category_id is required", i)
		case r.FromDaysAgo < r.ToDaysAgo || r.ToDaysAgo < 0:
			return fmt.Errorf("fixture: routine %d: need from_days_ago >= to_days_ago >= 0", i)
		case r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59:
			return fmt.Errorf("fixture: routine %d: invalid time of day %02d:%02d", i, r.Hour, r.Minute)
		case r.EveryDays < 0:
			return fmt.Errorf("fixture: routine %d: every_days must be positive", i)
		}
	}
	return nil
}

// Records returns the explicit activities plus every expanded routine, all
// owned by the fixture's user. now anchors routines when the fixture has none.
func (f *Fixture) Records(now time.Time) []models.ActivityRecord {
	if !f.Now.IsZero() {
		now = f.Now
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	out := make([]models.ActivityRecord, 0, len(f.Activities))
	for i, a := range f.Activities {
		a.UserID = f.UserID
		if a.ID == "" {
			a.ID = fmt.Sprintf("fixture-%d", i)
		}
		out = append(out, a)
	}

	for i, r := range f.Routines {
		step := r.EveryDays
		if step == 0 {
			step = 1
		}
		desc := r.Description
		if desc == "" {
			desc = r.CategoryID
		}
		for ago := r.FromDaysAgo; ago >= r.ToDaysAgo; ago -= step {
			start := today.AddDate(0, 0, -ago).Add(time.Duration(r.Hour)*time.Hour + time.Duration(r.Minute)*time.Minute)
			out = append(out, models.ActivityRecord{
				ID:              fmt.Sprintf("routine-%d-%d", i, ago),
				UserID:          f.UserID,
				CategoryID:      r.CategoryID,
				Description:     desc,
				StartTime:       start,
				DurationMinutes: r.DurationMinutes,
			})
		}
	}
	return out
}

// Seed loads the fixture into an in-memory store.
func (f *Fixture) Seed(store *memory.Store, now time.Time) {
	cats := make([]models.Category, len(f.Categories))
	for i, c := range f.Categories {
		c.UserID = f.UserID
		cats[i] = c
	}
	store.AddCategories(cats...)
	store.AddActivities(f.Records(now)...)
}
