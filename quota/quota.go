// Package quota tracks per-identity turn consumption against a
// configurable limit with a lifetime, daily or weekly reset window.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mode is the quota reset cadence.
type Mode string

const (
	ModeLifetime Mode = "LIFETIME"
	ModeDaily    Mode = "DAILY"
	ModeWeekly   Mode = "WEEKLY"
)

// ParseMode maps a config string onto a Mode. Unknown values fall back
// to lifetime, the safe default.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "daily":
		return ModeDaily
	case "weekly":
		return ModeWeekly
	default:
		return ModeLifetime
	}
}

// Status is the quota state reported to clients on every turn.
type Status struct {
	LimitReached bool `json:"limit_reached"`
	// Remaining is -1 for unlimited identities.
	Remaining int        `json:"remaining"`
	Used      int        `json:"used"`
	Limit     int        `json:"limit"`
	Mode      Mode       `json:"mode"`
	ResetsAt  *time.Time `json:"resets_at,omitempty"`
}

// Unlimited is the status reported for premium-tier identities.
func Unlimited(mode Mode) Status {
	return Status{LimitReached: false, Remaining: -1, Mode: mode}
}

// Counter tracks consumption per identity. Increment must be recorded
// exactly once per turn actually delivered, never for turns discarded
// by scrubbing.
type Counter interface {
	// Check returns the identity's current status, lazily resetting an
	// expired window.
	Check(ctx context.Context, identity string) (Status, error)
	// Increment charges one unit to the identity's current window.
	Increment(ctx context.Context, identity string) error
}

// windowKey returns the storage key for the identity's current window
// and the instant that window ends (zero for lifetime).
func windowKey(identity string, mode Mode, now time.Time) (string, time.Time) {
	now = now.UTC()
	switch mode {
	case ModeDaily:
		day := now.Format("2006-01-02")
		end := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		return fmt.Sprintf("quota:%s:d:%s", identity, day), end
	case ModeWeekly:
		year, week := now.ISOWeek()
		// Walk back to Monday 00:00 UTC, the ISO week start.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := now.Truncate(24 * time.Hour).AddDate(0, 0, -(weekday - 1))
		end := start.AddDate(0, 0, 7)
		return fmt.Sprintf("quota:%s:w:%d-%02d", identity, year, week), end
	default:
		return fmt.Sprintf("quota:%s", identity), time.Time{}
	}
}
