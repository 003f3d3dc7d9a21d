package game

import (
	"math/rand"
	"time"

	"attuned-server/content"
)

// turnStateVersion is the current persisted turn-state schema version.
// Loads of older versions go through MigrateTurnState exactly once.
const turnStateVersion = 1

// Player is one session participant. Guests carry a generated id and
// caller-supplied name/anatomy.
type Player struct {
	ID      string   `json:"id"`
	UserID  string   `json:"user_id,omitempty"`
	Name    string   `json:"name"`
	Anatomy []string `json:"anatomy,omitempty"`
	IsGuest bool     `json:"is_guest,omitempty"`
}

// TurnStatus is the delivery state of one queued turn.
type TurnStatus string

const (
	StatusShowCard            TurnStatus = "SHOW_CARD"
	StatusWaitingForSelection TurnStatus = "WAITING_FOR_SELECTION"
	StatusLimitReached        TurnStatus = "LIMIT_REACHED"
)

// Card is one deliverable content card with its display text resolved.
type Card struct {
	ItemID      string       `json:"item_id"`
	Type        content.Type `json:"type"`
	DisplayText string       `json:"display_text"`
	Intensity   int          `json:"intensity"`
	// NeedsRegeneration is carried over from placeholder items.
	NeedsRegeneration bool `json:"needs_regeneration,omitempty"`
}

// TurnEntry is one queued turn. Immutable once enqueued; scrubbing
// replaces the whole entry with a sentinel.
type TurnEntry struct {
	// Step increases monotonically across the session; the effective
	// step used for pacing wraps modulo the target length.
	Step         int `json:"step"`
	PrimaryIdx   int `json:"primary_idx"`
	SecondaryIdx int `json:"secondary_idx"`

	// Card is set in RANDOM selection mode and for sentinels.
	Card *Card `json:"card,omitempty"`

	// TruthCard/DareCard are set in MANUAL selection mode; DareCard is
	// omitted when dares are excluded.
	TruthCard *Card `json:"truth_card,omitempty"`
	DareCard  *Card `json:"dare_card,omitempty"`

	Phase  string     `json:"phase"`
	Status TurnStatus `json:"status"`
}

// IsSentinel reports whether the entry is a quota-limit placeholder
// rather than real content.
func (e *TurnEntry) IsSentinel() bool {
	return e.Status == StatusLimitReached
}

// TurnState is the per-session mutable queue state. It is read,
// mutated and written back atomically per advance call; serializing
// concurrent advances on one session is the caller's responsibility.
type TurnState struct {
	Version int         `json:"version"`
	Queue   []TurnEntry `json:"queue"`
	// Step is the last committed step counter.
	Step        int `json:"step"`
	TruthsSoFar int `json:"truths_so_far"`
	DaresSoFar  int `json:"dares_so_far"`

	// PlayedIDs are item ids consumed in this session.
	PlayedIDs []string `json:"played_ids"`

	// UsedFallbacks tracks safe-fallback templates already consumed.
	UsedFallbacks map[string]bool `json:"used_fallbacks,omitempty"`
}

// MigrateTurnState upgrades a loaded turn state to the current schema
// version in place. Pre-versioned states (version 0) may lack the
// queue, counters and fallback tracking entirely.
func MigrateTurnState(ts *TurnState) {
	if ts.Version >= turnStateVersion {
		if ts.UsedFallbacks == nil {
			ts.UsedFallbacks = make(map[string]bool)
		}
		return
	}
	if ts.Queue == nil {
		ts.Queue = []TurnEntry{}
	}
	if ts.PlayedIDs == nil {
		ts.PlayedIDs = []string{}
	}
	if ts.UsedFallbacks == nil {
		ts.UsedFallbacks = make(map[string]bool)
	}
	ts.Version = turnStateVersion
}

// Session is one game instance. Created once, mutated by the engine on
// every advance; lifecycle owned by the persistence layer.
type Session struct {
	ID string `json:"id"`

	// OwnerIdentity is the quota identity (user id or anonymous id).
	OwnerIdentity string `json:"owner_identity"`
	// OwnerAnonymous marks sessions started without authentication.
	OwnerAnonymous bool `json:"owner_anonymous"`
	// Unlimited is true for premium-tier owners.
	Unlimited bool `json:"unlimited"`

	Players  []Player  `json:"players"`
	Settings Settings  `json:"settings"`
	State    TurnState `json:"state"`

	CreatedAt time.Time `json:"created_at"`
}

// GroupMode reports whether group-scoped content applies (three or
// more participants).
func (s *Session) GroupMode() bool {
	return len(s.Players) >= 3
}

// EffectiveStep wraps a monotonic step onto the pacing curve for
// infinite play.
func EffectiveStep(step, targetLength int) int {
	if targetLength <= 0 {
		targetLength = 25
	}
	return (step-1)%targetLength + 1
}

// Rotation returns the primary and secondary player indices for a
// step. SEQUENTIAL walks the roster in order; RANDOM draws the primary
// uniformly. The secondary is the next player in rotation for pairs
// and a uniformly random other participant for groups.
func (s *Session) Rotation(step int) (primary, secondary int) {
	n := len(s.Players)
	if n == 0 {
		return 0, 0
	}
	if s.Settings.PlayerOrderMode == OrderRandom {
		primary = rand.Intn(n)
	} else {
		primary = (step - 1) % n
	}

	if n <= 2 {
		secondary = (primary + 1) % n
	} else {
		secondary = rand.Intn(n - 1)
		if secondary >= primary {
			secondary++
		}
	}
	return primary, secondary
}

// ExclusionIDs is the set of item ids that must not be offered again:
// everything queued (including unselected manual-mode cards) plus
// everything already played this session.
func (s *Session) ExclusionIDs() map[string]bool {
	out := make(map[string]bool)
	for _, e := range s.State.Queue {
		for _, c := range []*Card{e.Card, e.TruthCard, e.DareCard} {
			if c != nil && c.ItemID != "" {
				out[c.ItemID] = true
			}
		}
	}
	for _, id := range s.State.PlayedIDs {
		out[id] = true
	}
	return out
}

// AnatomyAvailable is the union of all participants' anatomy tags.
func (s *Session) AnatomyAvailable() map[string]bool {
	out := make(map[string]bool)
	for _, p := range s.Players {
		for _, a := range p.Anatomy {
			out[a] = true
		}
	}
	return out
}
