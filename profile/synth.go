package profile

// defaultAnatomyTags is the permissive anatomy set assumed when a guest
// or a synthesized partner states no preference.
var defaultAnatomyTags = []string{"penis", "vagina", "breasts"}

// Virtual builds a minimal profile for an anonymous guest who supplied
// only a name and anatomy tags. Orientation defaults to Switch (the
// broadest), with no activity preferences and no limits.
func Virtual(anatomySelf []string) *Profile {
	return &Profile{
		Activities:   map[string]float64{},
		DomainScores: map[string]float64{},
		TruthTopics:  map[string]float64{},
		PowerDynamic: PowerDynamic{Orientation: Switch},
		Boundaries:   Boundaries{HardLimits: []string{}},
		Anatomy: Anatomy{
			AnatomySelf: anatomySelf,
			Preference:  append([]string(nil), defaultAnatomyTags...),
		},
	}
}

// Complementary synthesizes a partner profile from a real one, so that
// scoring stays meaningful during one-sided onboarding: the partner has
// the anatomy the primary prefers, the inverse power orientation, the
// primary's boundaries, and mirrored directional activity keys (if the
// primary likes giving X, the partner likes receiving X at the same
// score).
func Complementary(primary *Profile) *Profile {
	partnerHas := primary.Anatomy.Preference
	if len(partnerHas) == 0 {
		partnerHas = defaultAnatomyTags
	}

	orientation := Switch
	switch primary.PowerDynamic.Orientation {
	case Top:
		orientation = Bottom
	case Bottom:
		orientation = Top
	}

	activities := make(map[string]float64, len(primary.Activities))
	for key, score := range primary.Activities {
		mirrored := key
		if _, kind := ParseKey(key); kind == SuffixGive || kind == SuffixReceive {
			if paired, ok := PairedKey(key); ok {
				mirrored = paired
			}
		}
		activities[mirrored] = score
	}

	return &Profile{
		Activities:   activities,
		DomainScores: map[string]float64{},
		TruthTopics:  map[string]float64{},
		PowerDynamic: PowerDynamic{Orientation: orientation},
		Boundaries:   Boundaries{HardLimits: append([]string(nil), primary.Boundaries.HardLimits...)},
		Anatomy: Anatomy{
			AnatomySelf: append([]string(nil), partnerHas...),
			Preference:  append([]string(nil), primary.Anatomy.AnatomySelf...),
		},
	}
}
