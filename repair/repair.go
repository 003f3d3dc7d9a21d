// Package repair replaces a failing turn item through a
// decreasing-strictness chain: candidate re-matches, optional external
// generation, a hand-authored safe fallback bank, and as a last resort
// a placeholder flagged for regeneration. The chain never blocks a
// session and never returns an item conflicting with a hard limit.
package repair

import (
	"context"
	"fmt"
	"log/slog"

	"attuned-server/content"
)

// Tier labels reported with the repaired item, for logging.
const (
	TierExactMatch   = "exact_match"
	TierNeighbor     = "neighbor_intensity"
	TierAnyIntensity = "any_intensity"
	TierGenerated    = "generated"
	TierSafeFallback = "safe_fallback"
	TierPlaceholder  = "placeholder"
)

// Request describes the slot whose item failed.
type Request struct {
	Step         int
	Type         content.Type
	Rating       content.Rating
	IntensityMin int
	IntensityMax int

	// Candidates is the alternative pool fetched for this slot.
	Candidates []*content.Item

	// HardLimits is the combined hard-limit set; no repair tier may
	// return an item conflicting with it.
	HardLimits map[string]bool

	// UsedFallbacks tracks which safe-fallback templates this session
	// has already consumed (each may be used at most once). Owned by
	// the caller; mutated when a fallback is chosen.
	UsedFallbacks map[string]bool
}

// Chain repairs failing items. The external generator is optional.
type Chain struct {
	gen     Generator
	retries int
}

// New returns a Chain. gen may be nil to disable external generation;
// retries bounds generation attempts and falls back to the default
// when non-positive.
func New(gen Generator, retries int) *Chain {
	if retries <= 0 {
		retries = genDefaultRetries
	}
	return &Chain{gen: gen, retries: retries}
}

// Repair finds a replacement for a failed slot. It always returns an
// item; the tier label says which strategy produced it.
func (c *Chain) Repair(ctx context.Context, req Request) (*content.Item, string) {
	// Tier 1: exact intensity window, same type and rating.
	if it := matchCandidate(req, req.IntensityMin, req.IntensityMax); it != nil {
		return it, TierExactMatch
	}

	// Tier 2: widen the window by one in both directions.
	nMin, nMax := req.IntensityMin-1, req.IntensityMax+1
	if nMin < 1 {
		nMin = 1
	}
	if nMax > 5 {
		nMax = 5
	}
	if it := matchCandidate(req, nMin, nMax); it != nil {
		return it, TierNeighbor
	}

	// Tier 3: any intensity, same type and rating.
	if it := matchCandidate(req, 1, 5); it != nil {
		slog.Warn("repair using any-intensity match", "tag", "repair", "step", req.Step)
		return it, TierAnyIntensity
	}

	// Optional external generation, bounded retry with backoff.
	if c.gen != nil {
		if it, err := generateWithRetry(ctx, c.gen, req, c.retries); err == nil && it != nil {
			if !it.ViolatesLimits(req.HardLimits) {
				return it, TierGenerated
			}
			slog.Warn("generated item conflicts with hard limits, discarding", "tag", "repair", "step", req.Step)
		} else if err != nil {
			slog.Warn("external generation failed", "tag", "repair", "step", req.Step, "error", err)
		}
	}

	// Tier 4: safe fallback bank, once per template per session.
	if it := safeFallback(req); it != nil {
		slog.Warn("repair using safe fallback", "tag", "repair", "step", req.Step, "item", it.ID)
		return it, TierSafeFallback
	}

	// Tier 5: placeholder flagged for regeneration.
	slog.Error("repair exhausted, emitting placeholder", "tag", "repair", "step", req.Step, "type", req.Type)
	return placeholder(req), TierPlaceholder
}

// matchCandidate returns the first candidate of the right type/rating
// inside the window that does not conflict with the hard limits.
func matchCandidate(req Request, intensityMin, intensityMax int) *content.Item {
	for _, c := range req.Candidates {
		if c.Type != req.Type || c.Rating != req.Rating {
			continue
		}
		if c.Intensity < intensityMin || c.Intensity > intensityMax {
			continue
		}
		if c.ViolatesLimits(req.HardLimits) {
			continue
		}
		return c
	}
	return nil
}

// Ultra-safe generic templates keyed by intensity, workable for any
// pair.
var truthFallbacks = map[int]string{
	1: "Share your favorite memory from this year",
	2: "Describe what attracted you to your partner",
	3: "Share a fantasy you'd like to explore together",
	4: "Describe your ideal intimate evening",
	5: "Share your deepest desire for this relationship",
}

var dareFallbacks = map[int]string{
	1: "Give your partner a genuine compliment",
	2: "Massage your partner's shoulders for 30 seconds",
	3: "Kiss your partner passionately for 10 seconds",
	4: "Undress your partner slowly and mindfully",
	5: "Pleasure your partner using only your hands",
}

func safeFallback(req Request) *content.Item {
	intensity := (req.IntensityMin + req.IntensityMax) / 2
	if req.Rating == content.RatingG && intensity > 2 {
		intensity = 2
	}

	bank := truthFallbacks
	if req.Type == content.TypeDare {
		bank = dareFallbacks
	}
	text, ok := bank[intensity]
	if !ok {
		return nil
	}

	key := fmt.Sprintf("%s:%d", req.Type, intensity)
	if req.UsedFallbacks[key] {
		return nil
	}
	if req.UsedFallbacks != nil {
		req.UsedFallbacks[key] = true
	}

	return &content.Item{
		ID:        "fallback-" + key,
		Type:      req.Type,
		Rating:    req.Rating,
		Intensity: intensity,
		Script: content.Script{Steps: []content.ScriptStep{
			{Actor: "A", Do: text},
		}},
		Tags:   []string{"fallback", "safe"},
		Source: "fallback",
		Checks: content.Checks{RespectsHardLimits: true},
	}
}

func placeholder(req Request) *content.Item {
	intensity := (req.IntensityMin + req.IntensityMax) / 2
	if intensity < 1 {
		intensity = 1
	}
	return &content.Item{
		ID:        fmt.Sprintf("placeholder-%d", req.Step),
		Type:      req.Type,
		Rating:    req.Rating,
		Intensity: intensity,
		Script: content.Script{Steps: []content.ScriptStep{
			{Actor: "A", Do: fmt.Sprintf("Placeholder %s activity - please regenerate", req.Type)},
		}},
		Tags:              []string{"placeholder"},
		Source:            "fallback",
		Checks:            content.Checks{RespectsHardLimits: true},
		NeedsRegeneration: true,
	}
}
