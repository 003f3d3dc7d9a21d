package profile

// Orientation is a player's power-dynamic role.
type Orientation string

const (
	Top       Orientation = "Top"
	Bottom    Orientation = "Bottom"
	Switch    Orientation = "Switch"
	Undefined Orientation = "Undefined"
)

// PowerDynamic is a player's stated power-dynamic role and how confident
// the profiling step was about it.
type PowerDynamic struct {
	Orientation Orientation `json:"orientation"`
	Confidence  float64     `json:"confidence"`
}

// ArousalPropensity holds the three 0-1 arousal axes.
type ArousalPropensity struct {
	Excitation            float64 `json:"excitation"`
	InhibitionPerformance float64 `json:"inhibition_performance"`
	InhibitionConsequence float64 `json:"inhibition_consequence"`
}

// Boundaries holds a player's categorical exclusions.
type Boundaries struct {
	HardLimits []string `json:"hard_limits"`
}

// Anatomy holds a player's own body-part tags and, where stated, the
// tags they prefer in a partner.
type Anatomy struct {
	AnatomySelf []string `json:"anatomy_self"`
	Preference  []string `json:"preference"`
}

// Profile is one participant's preference profile. The engine treats it
// as read-only input; missing data scores neutral, never errors.
type Profile struct {
	// Activities maps activity key -> interest score in [0,1]. Keys may
	// carry a directional suffix (_give/_receive, _self/_watching).
	Activities map[string]float64 `json:"activities"`

	PowerDynamic PowerDynamic `json:"power_dynamic"`

	// DomainScores maps domain name -> score in [0,100].
	DomainScores map[string]float64 `json:"domain_scores"`

	ArousalPropensity ArousalPropensity `json:"arousal_propensity"`

	// TruthTopics maps topic name -> comfort score in [0,1].
	TruthTopics map[string]float64 `json:"truth_topics"`

	Boundaries Boundaries `json:"boundaries"`
	Anatomy    Anatomy    `json:"anatomy"`
}

// Activity returns the interest score for key, or ok=false when the
// profile has no entry for it.
func (p *Profile) Activity(key string) (float64, bool) {
	if p == nil || p.Activities == nil {
		return 0, false
	}
	v, ok := p.Activities[key]
	return v, ok
}

// CombinedHardLimits returns the union of both players' hard limits.
func CombinedHardLimits(a, b *Profile) map[string]bool {
	limits := make(map[string]bool)
	for _, p := range []*Profile{a, b} {
		if p == nil {
			continue
		}
		for _, l := range p.Boundaries.HardLimits {
			limits[l] = true
		}
	}
	return limits
}
