package content

// Type is the content item kind.
type Type string

const (
	TypeTruth Type = "truth"
	TypeDare  Type = "dare"
)

// Rating is the content rating on the ordinal scale G < R < X.
type Rating string

const (
	RatingG Rating = "G"
	RatingR Rating = "R"
	RatingX Rating = "X"
)

// Level returns the ordinal position of the rating. Unknown ratings are
// treated as R.
func (r Rating) Level() int {
	switch r {
	case RatingG:
		return 0
	case RatingR:
		return 1
	case RatingX:
		return 2
	default:
		return 1
	}
}

// CompatibleWith reports whether an item of this rating may appear in a
// session of the given rating (G sessions only G, R sessions G or R, X
// sessions anything).
func (r Rating) CompatibleWith(session Rating) bool {
	return r.Level() <= session.Level()
}

// RatingForIntimacy maps a session intimacy level (1-5) onto a rating:
// 1-2 -> G, 3-4 -> R, 5+ -> X.
func RatingForIntimacy(level int) Rating {
	switch {
	case level <= 2:
		return RatingG
	case level >= 5:
		return RatingX
	default:
		return RatingR
	}
}

// ScriptStep is one instruction in an item's script. Actor is "A"
// (primary player) or "B" (secondary).
type ScriptStep struct {
	Actor string `json:"actor"`
	Do    string `json:"do"`
}

// Script is the ordered instruction list of an item (1-2 steps).
type Script struct {
	Steps []ScriptStep `json:"steps"`
}

// Checks holds the moderation flags attached to an item during
// enrichment.
type Checks struct {
	// MaybeItemsPresent marks items referencing an activity at least one
	// participant marked as uncertain.
	MaybeItemsPresent bool `json:"maybe_items_present"`
	// RespectsHardLimits is false when enrichment could not confirm the
	// item is boundary-safe.
	RespectsHardLimits bool `json:"respects_hard_limits"`
}

// Item is one entry of the activity bank. Immutable once fetched;
// identified by a stable ID used for deduplication.
type Item struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Rating    Rating `json:"rating"`
	Intensity int    `json:"intensity"` // 1-5
	Script    Script `json:"script"`

	Tags          []string `json:"tags"`
	Source        string   `json:"source"`         // bank, generated, fallback
	AudienceScope string   `json:"audience_scope"` // couples, groups, all

	// PowerRole is top, bottom, switch or neutral.
	PowerRole string `json:"power_role"`

	// PreferenceKeys are the activity keys this item is about.
	PreferenceKeys []string `json:"preference_keys"`

	Domains     []string `json:"domains"`
	TruthTopics []string `json:"truth_topics"`

	// HardBoundaries are boundary identifiers this item could trigger.
	HardBoundaries []string `json:"hard_boundaries"`

	// RequiredAnatomy lists body-part tags the receiving side must have.
	RequiredAnatomy []string `json:"required_anatomy"`

	// PerformancePressure flags items that put one player on the spot
	// (used by the performance-inhibition modifier).
	PerformancePressure bool `json:"performance_pressure"`

	Checks Checks `json:"checks"`

	// NeedsRegeneration marks synthesized placeholders that must be
	// replaced before long-term reuse.
	NeedsRegeneration bool `json:"needs_regeneration,omitempty"`
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	out := *i
	out.Script.Steps = append([]ScriptStep(nil), i.Script.Steps...)
	out.Tags = append([]string(nil), i.Tags...)
	out.PreferenceKeys = append([]string(nil), i.PreferenceKeys...)
	out.Domains = append([]string(nil), i.Domains...)
	out.TruthTopics = append([]string(nil), i.TruthTopics...)
	out.HardBoundaries = append([]string(nil), i.HardBoundaries...)
	out.RequiredAnatomy = append([]string(nil), i.RequiredAnatomy...)
	return &out
}

// ViolatesLimits reports whether any of the item's declared boundary
// tags intersect the given hard-limit set.
func (i *Item) ViolatesLimits(limits map[string]bool) bool {
	for _, b := range i.HardBoundaries {
		if limits[b] {
			return true
		}
	}
	return false
}

// AnatomySatisfiable reports whether every required anatomy tag is
// available among the participants.
func (i *Item) AnatomySatisfiable(available map[string]bool) bool {
	for _, req := range i.RequiredAnatomy {
		if !available[req] {
			return false
		}
	}
	return true
}
