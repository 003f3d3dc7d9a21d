package game

import (
	"context"
	"time"

	"attuned-server/content"
	"attuned-server/profile"
)

// User is the engine's view of an account: identity, display data and
// subscription tier.
type User struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"display_name"`
	SubscriptionTier string   `json:"subscription_tier"` // free, premium
	Anatomy          []string `json:"anatomy"`
}

// Premium reports whether the user has an unlimited-tier subscription.
func (u *User) Premium() bool {
	return u != nil && u.SubscriptionTier == "premium"
}

// PlayRecord is one consumed non-sentinel turn, recorded for history
// and repetition prevention.
type PlayRecord struct {
	Identity        string       `json:"identity"`
	SessionID       string       `json:"session_id"`
	ItemID          string       `json:"item_id"`
	Type            content.Type `json:"type"`
	PrimaryPlayerID string       `json:"primary_player_id"`
	PlayedAt        time.Time    `json:"played_at"`
}

// SessionStore persists sessions. Loads must return state already
// migrated to the current turn-state version.
type SessionStore interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
}

// HistoryStore records consumed turns and serves the per-player
// repetition-prevention window.
type HistoryStore interface {
	RecordPlay(ctx context.Context, rec PlayRecord) error
	// RecentItemIDs returns the player's most recently played item ids,
	// newest first, bounded by limit.
	RecentItemIDs(ctx context.Context, playerID string, limit int) ([]string, error)
}

// UserStore resolves authenticated accounts.
type UserStore interface {
	// GetUser returns (nil, nil) when the id is unknown.
	GetUser(ctx context.Context, id string) (*User, error)
}

// ProfileStore serves stored player profiles.
type ProfileStore interface {
	// GetProfile returns (nil, nil) when the player has no profile.
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
}
