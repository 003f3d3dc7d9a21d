// Package scoring ranks one content item against two player profiles.
//
// Base weights: mutual interest 0.5, power alignment 0.3, domain fit
// 0.2. When truth-topic fit applies, the three base axes are re-weighted
// to 85% of nominal and topic fit contributes the remaining 15%. Two
// additive arousal modifiers adjust the weighted base; the final score
// is clamped to [0,1]. Scoring never errors: missing profile data
// defaults to neutral 0.5.
package scoring

import (
	"strings"

	"attuned-server/content"
	"attuned-server/profile"
)

const (
	weightMutualInterest = 0.5
	weightPowerAlignment = 0.3
	weightDomainFit      = 0.2

	// topicWeight is carved out of the base axes when topic fit applies.
	topicWeight = 0.15
	baseScale   = 1 - topicWeight
)

// neutralScore is assumed for any preference, domain or topic a profile
// does not mention.
const neutralScore = 0.5

// Position is the optional session-position context for the pacing
// modifier.
type Position struct {
	Step         int
	TargetLength int
}

// Breakdown is the per-axis result of scoring one item.
type Breakdown struct {
	MutualInterest float64 `json:"mutual_interest"`
	PowerAlignment float64 `json:"power_alignment"`
	DomainFit      float64 `json:"domain_fit"`

	// TruthTopicFit is only meaningful when TopicApplicable is true.
	TruthTopicFit   float64 `json:"truth_topic_fit"`
	TopicApplicable bool    `json:"topic_applicable"`

	PacingModifier      float64 `json:"pacing_modifier"`
	PerformanceModifier float64 `json:"performance_modifier"`

	Overall float64 `json:"overall"`
}

// Score computes the full breakdown for an item and two profiles. pos
// may be nil, disabling the pacing modifier.
func Score(item *content.Item, a, b *profile.Profile, pos *Position) Breakdown {
	bd := Breakdown{
		MutualInterest: MutualInterest(item.PreferenceKeys, a, b),
		PowerAlignment: PowerAlignment(item.PowerRole, a.PowerDynamic.Orientation, b.PowerDynamic.Orientation),
		DomainFit:      DomainFit(item.Domains, a, b),
	}
	bd.TruthTopicFit, bd.TopicApplicable = TruthTopicFit(item, a, b)

	base := weightMutualInterest*bd.MutualInterest +
		weightPowerAlignment*bd.PowerAlignment +
		weightDomainFit*bd.DomainFit
	if bd.TopicApplicable {
		base = base*baseScale + topicWeight*bd.TruthTopicFit
	}

	if pos != nil {
		bd.PacingModifier = PacingModifier(item.Intensity, pos.Step, pos.TargetLength, a, b)
	}
	bd.PerformanceModifier = PerformanceModifier(item, a, b)

	bd.Overall = clamp01(base + bd.PacingModifier + bd.PerformanceModifier)
	return bd
}

// MutualInterest scores how well the item's preference keys match both
// players (0-1). Directional keys are scored by the better of the two
// cross directions (A gives to B, B gives to A); non-directional keys
// fall into five mutual-interest buckets. An item with no keys scores
// neutral.
func MutualInterest(keys []string, a, b *profile.Profile) float64 {
	if len(keys) == 0 {
		return neutralScore
	}
	var sum float64
	for _, key := range keys {
		if paired, ok := profile.PairedKey(key); ok {
			sum += directionalScore(key, paired, a, b)
		} else {
			sum += bucketScore(activityScore(a, key), activityScore(b, key))
		}
	}
	return sum / float64(len(keys))
}

// directionalScore evaluates both cross directions of a directional
// pair and maps the better one onto a recommendation score.
func directionalScore(key, paired string, a, b *profile.Profile) float64 {
	dirAB := min2(activityScore(a, key), activityScore(b, paired))
	dirBA := min2(activityScore(b, key), activityScore(a, paired))
	best := dirAB
	if dirBA > best {
		best = dirBA
	}
	switch {
	case best >= 0.7:
		return 1.0
	case best >= 0.5:
		return 0.8
	case best >= 0.3:
		return 0.6
	default:
		return 0.3
	}
}

// bucketScore classifies a pair of raw interest scores into the five
// mutual-interest buckets.
func bucketScore(sa, sb float64) float64 {
	bothYes := sa >= 0.7 && sb >= 0.7
	oneYesOneMaybe := (sa >= 0.7 && sb >= 0.3 && sb < 0.7) || (sb >= 0.7 && sa >= 0.3 && sa < 0.7)
	bothMaybe := sa >= 0.3 && sa < 0.7 && sb >= 0.3 && sb < 0.7
	oneYesOneNo := (sa >= 0.7 && sb < 0.3) || (sb >= 0.7 && sa < 0.3)

	switch {
	case bothYes:
		return 1.0
	case oneYesOneMaybe:
		return 0.6
	case bothMaybe:
		return 0.4
	case oneYesOneNo:
		return 0.1
	default:
		return 0.0
	}
}

// PowerAlignment scores the item's power role against the pair's
// orientations (0-1). Neutral and switch items fit everyone; top and
// bottom items grade by whether the complementary role is present.
func PowerAlignment(role string, oa, ob profile.Orientation) float64 {
	if role == "" || role == "neutral" || role == "switch" {
		return 1.0
	}

	hasTop := oa == profile.Top || ob == profile.Top
	hasBottom := oa == profile.Bottom || ob == profile.Bottom
	hasSwitch := oa == profile.Switch || ob == profile.Switch

	switch role {
	case "top":
		switch {
		case hasTop && hasBottom:
			return 1.0
		case hasTop && hasSwitch:
			return 0.95
		case hasTop:
			return 0.8
		case hasSwitch:
			return 0.6
		default:
			return 0.0 // both Bottom, nobody to lead
		}
	case "bottom":
		switch {
		case hasTop && hasBottom:
			return 1.0
		case hasBottom && hasSwitch:
			return 0.95
		case hasBottom:
			return 0.8
		case hasSwitch:
			return 0.6
		default:
			return 0.0 // both Top, nobody to receive
		}
	default:
		return 0.5
	}
}

// DomainFit averages, across the item's domain tags, the mean of both
// players' scores for that domain. Profile domain scores are stored
// 0-100 and normalized here; tags match case-insensitively.
func DomainFit(domains []string, a, b *profile.Profile) float64 {
	if len(domains) == 0 {
		return neutralScore
	}
	var sum float64
	for _, d := range domains {
		key := strings.ToLower(d)
		sum += (domainScore(a, key) + domainScore(b, key)) / 2
	}
	return sum / float64(len(domains))
}

// TruthTopicFit averages min(playerA, playerB) comfort over the item's
// topics. Not applicable for dares or untagged truths.
func TruthTopicFit(item *content.Item, a, b *profile.Profile) (float64, bool) {
	if item.Type != content.TypeTruth || len(item.TruthTopics) == 0 {
		return 0, false
	}
	var sum float64
	for _, topic := range item.TruthTopics {
		sum += min2(topicScore(a, topic), topicScore(b, topic))
	}
	return sum / float64(len(item.TruthTopics)), true
}

// PacingModifier compares the item's intensity to the expected
// intensity for the current session progress, shifted by the pair's
// average excitation, and rewards closeness in [-0.05, 0.05].
func PacingModifier(intensity, step, targetLength int, a, b *profile.Profile) float64 {
	if targetLength <= 0 {
		return 0
	}
	progress := float64(step) / float64(targetLength)

	var expected float64
	switch {
	case progress <= 0.2:
		expected = 1.5
	case progress <= 0.6:
		expected = 2.5
	case progress <= 0.88:
		expected = 3.5
	default:
		expected = 2.5
	}

	avgSE := (a.ArousalPropensity.Excitation + b.ArousalPropensity.Excitation) / 2
	if avgSE >= 0.65 {
		expected += 0.5
	} else if avgSE < 0.35 {
		expected -= 0.5
	}

	dist := float64(intensity) - expected
	if dist < 0 {
		dist = -dist
	}
	switch {
	case dist <= 0.5:
		return 0.05
	case dist <= 1.0:
		return 0.02
	case dist <= 1.5:
		return 0.0
	default:
		return -0.05
	}
}

// PerformanceModifier penalizes performance-pressure items when either
// player scores high on performance inhibition.
func PerformanceModifier(item *content.Item, a, b *profile.Profile) float64 {
	if !item.PerformancePressure {
		return 0
	}
	maxSISP := a.ArousalPropensity.InhibitionPerformance
	if b.ArousalPropensity.InhibitionPerformance > maxSISP {
		maxSISP = b.ArousalPropensity.InhibitionPerformance
	}
	switch {
	case maxSISP >= 0.65:
		return -0.15
	case maxSISP >= 0.50:
		return -0.05
	default:
		return 0
	}
}

func activityScore(p *profile.Profile, key string) float64 {
	if v, ok := p.Activity(key); ok {
		return v
	}
	return neutralScore
}

func domainScore(p *profile.Profile, key string) float64 {
	if p == nil || p.DomainScores == nil {
		return neutralScore
	}
	v, ok := p.DomainScores[key]
	if !ok {
		return neutralScore
	}
	if v > 1 {
		v = v / 100
	}
	return clamp01(v)
}

func topicScore(p *profile.Profile, topic string) float64 {
	if p == nil || p.TruthTopics == nil {
		return neutralScore
	}
	if v, ok := p.TruthTopics[topic]; ok {
		return v
	}
	return neutralScore
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
