package repair

import (
	"context"
	"errors"
	"testing"

	"attuned-server/content"
)

func candidate(id string, typ content.Type, rating content.Rating, intensity int, boundaries ...string) *content.Item {
	return &content.Item{
		ID:             id,
		Type:           typ,
		Rating:         rating,
		Intensity:      intensity,
		HardBoundaries: boundaries,
		Script: content.Script{Steps: []content.ScriptStep{
			{Actor: "A", Do: "share something you have always wanted to try"},
		}},
		Checks: content.Checks{RespectsHardLimits: true},
	}
}

func baseRequest(candidates ...*content.Item) Request {
	return Request{
		Step: 8, Type: content.TypeTruth, Rating: content.RatingR,
		IntensityMin: 2, IntensityMax: 3,
		Candidates:    candidates,
		HardLimits:    map[string]bool{},
		UsedFallbacks: map[string]bool{},
	}
}

func TestRepairExactMatch(t *testing.T) {
	chain := New(nil, 0)
	req := baseRequest(candidate("exact", content.TypeTruth, content.RatingR, 3))

	it, tier := chain.Repair(context.Background(), req)
	if tier != TierExactMatch || it.ID != "exact" {
		t.Errorf("expected exact match, got tier=%s item=%s", tier, it.ID)
	}
}

func TestRepairNeighborIntensity(t *testing.T) {
	chain := New(nil, 0)
	req := baseRequest(candidate("near", content.TypeTruth, content.RatingR, 4))

	it, tier := chain.Repair(context.Background(), req)
	if tier != TierNeighbor || it.ID != "near" {
		t.Errorf("expected neighbor match, got tier=%s item=%s", tier, it.ID)
	}
}

func TestRepairAnyIntensity(t *testing.T) {
	chain := New(nil, 0)
	req := baseRequest(candidate("far", content.TypeTruth, content.RatingR, 5))

	it, tier := chain.Repair(context.Background(), req)
	if tier != TierAnyIntensity || it.ID != "far" {
		t.Errorf("expected any-intensity match, got tier=%s item=%s", tier, it.ID)
	}
}

func TestRepairSafeFallbackOncePerSession(t *testing.T) {
	chain := New(nil, 0)
	used := map[string]bool{}

	req := baseRequest()
	req.UsedFallbacks = used
	it, tier := chain.Repair(context.Background(), req)
	if tier != TierSafeFallback {
		t.Fatalf("expected safe fallback, got %s", tier)
	}
	if it.Source != "fallback" {
		t.Errorf("expected fallback source, got %q", it.Source)
	}

	// The same fallback template cannot be used twice; the second call
	// degrades to a placeholder.
	req2 := baseRequest()
	req2.UsedFallbacks = used
	it2, tier2 := chain.Repair(context.Background(), req2)
	if tier2 != TierPlaceholder {
		t.Errorf("expected placeholder on second exhaustion, got %s", tier2)
	}
	if !it2.NeedsRegeneration {
		t.Errorf("placeholder must be flagged for regeneration")
	}
}

func TestRepairFallbackGCap(t *testing.T) {
	chain := New(nil, 0)
	req := baseRequest()
	req.Rating = content.RatingG
	req.IntensityMin, req.IntensityMax = 4, 5

	it, tier := chain.Repair(context.Background(), req)
	if tier != TierSafeFallback {
		t.Fatalf("expected safe fallback, got %s", tier)
	}
	if it.Intensity > 2 {
		t.Errorf("G-rated fallback intensity must be capped at 2, got %d", it.Intensity)
	}
}

func TestRepairNeverViolatesHardLimits(t *testing.T) {
	chain := New(nil, 0)
	limits := map[string]bool{"impact": true}

	// Candidates at every tier's intensity, all conflicting.
	req := baseRequest(
		candidate("t1", content.TypeTruth, content.RatingR, 3, "impact"),
		candidate("t2", content.TypeTruth, content.RatingR, 4, "impact"),
		candidate("t3", content.TypeTruth, content.RatingR, 5, "impact"),
	)
	req.HardLimits = limits

	it, tier := chain.Repair(context.Background(), req)
	if it.ViolatesLimits(limits) {
		t.Errorf("tier %s returned an item violating hard limits", tier)
	}
	if tier == TierExactMatch || tier == TierNeighbor || tier == TierAnyIntensity {
		t.Errorf("conflicting candidates must be skipped, got tier %s", tier)
	}
}

type stubGenerator struct {
	item  *content.Item
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, typ content.Type, rating content.Rating, min, max int) (*content.Item, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.item, nil
}

func TestRepairUsesGeneratorBeforeFallback(t *testing.T) {
	gen := &stubGenerator{item: candidate("fresh", content.TypeTruth, content.RatingR, 3)}
	chain := New(gen, 0)

	it, tier := chain.Repair(context.Background(), baseRequest())
	if tier != TierGenerated || it.ID != "fresh" {
		t.Errorf("expected generated item, got tier=%s item=%s", tier, it.ID)
	}
}

func TestRepairGeneratorFailureDegradesToFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("service unavailable")}
	chain := New(gen, 1)

	_, tier := chain.Repair(context.Background(), baseRequest())
	if tier != TierSafeFallback {
		t.Errorf("expected safe fallback after generation failure, got %s", tier)
	}
	if gen.calls != 2 {
		t.Errorf("expected initial attempt plus one retry, got %d calls", gen.calls)
	}
}

func TestRepairGeneratorRetriesConfigurable(t *testing.T) {
	gen := &stubGenerator{err: errors.New("service unavailable")}
	chain := New(gen, 2)

	chain.Repair(context.Background(), baseRequest())
	if gen.calls != 3 {
		t.Errorf("retries=2 must yield 3 attempts, got %d", gen.calls)
	}
}
