// Package selector picks the best-matching content item for one turn
// slot: hard filters at the store, scoring in memory, randomized
// tie-breaking among comparable candidates.
package selector

import (
	"context"
	"log/slog"
	"math/rand"

	"attuned-server/content"
	"attuned-server/profile"
	"attuned-server/scoring"
)

// powerFilterMin drops candidates whose power alignment is a hard
// mismatch before full scoring.
const powerFilterMin = 0.3

// Request describes one slot to fill.
type Request struct {
	Type         content.Type
	Rating       content.Rating
	IntensityMin int
	IntensityMax int

	PlayerA *profile.Profile
	PlayerB *profile.Profile

	// GroupMode selects group-scoped items instead of couples-scoped.
	GroupMode bool

	// HardLimits is the union of both players' hard-limit identifiers.
	HardLimits map[string]bool

	// Anatomy is the set of body-part tags available this turn.
	Anatomy map[string]bool

	// ExcludeIDs are item ids that must not be re-offered.
	ExcludeIDs map[string]bool

	// Position enables the pacing modifier when set.
	Position *scoring.Position

	// Randomize samples uniformly among near-best candidates instead of
	// taking the deterministic maximum.
	Randomize bool
}

// Selector ranks store candidates for turn slots.
type Selector struct {
	store      content.Store
	topN       int
	tieEpsilon float64
}

// New returns a Selector over the given store. topN bounds how many
// candidates are fetched and scored per slot.
func New(store content.Store, topN int, tieEpsilon float64) *Selector {
	if topN <= 0 {
		topN = 75
	}
	return &Selector{store: store, topN: topN, tieEpsilon: tieEpsilon}
}

// Pick returns the best-scoring candidate for the request, or (nil,
// nil, nil) when the filtered pool is empty. An empty pool is a normal
// outcome, not an error.
func (s *Selector) Pick(ctx context.Context, req Request) (*content.Item, *scoring.Breakdown, error) {
	scopes := []string{"couples", "all"}
	if req.GroupMode {
		scopes = []string{"groups", "all"}
	}

	candidates, err := s.store.FindCandidates(ctx, content.Query{
		Type:             req.Type,
		Rating:           req.Rating,
		IntensityMin:     req.IntensityMin,
		IntensityMax:     req.IntensityMax,
		AudienceScopes:   scopes,
		ExcludeIDs:       req.ExcludeIDs,
		AnatomyAvailable: req.Anatomy,
		HardLimits:       req.HardLimits,
		// Fetch extra to absorb the power-dynamics filter below.
		Limit: s.topN * 2,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	// Drop hard power mismatches before full scoring.
	compatible := candidates[:0:0]
	for _, c := range candidates {
		align := scoring.PowerAlignment(c.PowerRole, req.PlayerA.PowerDynamic.Orientation, req.PlayerB.PowerDynamic.Orientation)
		if align >= powerFilterMin {
			compatible = append(compatible, c)
		}
	}
	if len(compatible) == 0 {
		// Nothing power-compatible; fall back to the raw pool rather
		// than returning nothing.
		slog.Debug("no power-compatible candidates, using raw pool", "tag", "selector", "pool", len(candidates))
		compatible = candidates
	}
	if len(compatible) > s.topN {
		compatible = compatible[:s.topN]
	}

	type scored struct {
		item *content.Item
		bd   scoring.Breakdown
	}
	results := make([]scored, len(compatible))
	best := -1.0
	for i, c := range compatible {
		bd := scoring.Score(c, req.PlayerA, req.PlayerB, req.Position)
		results[i] = scored{item: c, bd: bd}
		if bd.Overall > best {
			best = bd.Overall
		}
	}

	// Collect everything within epsilon of the maximum.
	var pool []scored
	for _, r := range results {
		if best-r.bd.Overall <= s.tieEpsilon {
			pool = append(pool, r)
		}
	}

	var chosen scored
	if req.Randomize && len(pool) > 1 {
		chosen = pool[rand.Intn(len(pool))]
	} else {
		chosen = pool[0]
		for _, r := range pool {
			if r.bd.Overall > chosen.bd.Overall {
				chosen = r
			}
		}
	}

	slog.Debug("candidate selected", "tag", "selector",
		"item", chosen.item.ID, "score", chosen.bd.Overall,
		"pool", len(compatible), "ties", len(pool))
	bd := chosen.bd
	return chosen.item, &bd, nil
}
