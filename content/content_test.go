package content

import (
	"context"
	"testing"
)

func TestRatingCompatibleWith(t *testing.T) {
	cases := []struct {
		item, session Rating
		want          bool
	}{
		{RatingG, RatingG, true},
		{RatingR, RatingG, false},
		{RatingX, RatingG, false},
		{RatingG, RatingR, true},
		{RatingR, RatingR, true},
		{RatingX, RatingR, false},
		{RatingX, RatingX, true},
	}
	for _, c := range cases {
		if got := c.item.CompatibleWith(c.session); got != c.want {
			t.Errorf("%s.CompatibleWith(%s) = %v, want %v", c.item, c.session, got, c.want)
		}
	}
}

func TestRatingForIntimacy(t *testing.T) {
	cases := []struct {
		level int
		want  Rating
	}{
		{1, RatingG},
		{2, RatingG},
		{3, RatingR},
		{4, RatingR},
		{5, RatingX},
	}
	for _, c := range cases {
		if got := RatingForIntimacy(c.level); got != c.want {
			t.Errorf("RatingForIntimacy(%d) = %s, want %s", c.level, got, c.want)
		}
	}
}

func testItem(id string, typ Type, rating Rating, intensity int) *Item {
	return &Item{
		ID:            id,
		Type:          typ,
		Rating:        rating,
		Intensity:     intensity,
		AudienceScope: "all",
		PowerRole:     "neutral",
		Script: Script{Steps: []ScriptStep{
			{Actor: "A", Do: "share one thing you appreciate about your partner"},
		}},
		Checks: Checks{RespectsHardLimits: true},
	}
}

func TestMemoryStoreHardFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(
		testItem("1", TypeTruth, RatingG, 1),
		testItem("2", TypeTruth, RatingG, 3),
		testItem("3", TypeDare, RatingG, 1),
		testItem("4", TypeTruth, RatingR, 1),
	)

	items, err := store.FindCandidates(ctx, Query{
		Type: TypeTruth, Rating: RatingG, IntensityMin: 1, IntensityMax: 2, Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("expected only item 1, got %v", items)
	}
}

func TestMemoryStoreExcludesAndLimits(t *testing.T) {
	ctx := context.Background()
	boundaryItem := testItem("5", TypeDare, RatingR, 2)
	boundaryItem.HardBoundaries = []string{"impact"}
	anatomyItem := testItem("6", TypeDare, RatingR, 2)
	anatomyItem.RequiredAnatomy = []string{"penis"}
	plain := testItem("7", TypeDare, RatingR, 2)

	store := NewMemoryStore(boundaryItem, anatomyItem, plain)

	items, err := store.FindCandidates(ctx, Query{
		Type: TypeDare, Rating: RatingR, IntensityMin: 1, IntensityMax: 5,
		HardLimits:       map[string]bool{"impact": true},
		AnatomyAvailable: map[string]bool{"vagina": true},
		Limit:            10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "7" {
		t.Errorf("expected only the plain item, got %v", items)
	}

	items, err = store.FindCandidates(ctx, Query{
		Type: TypeDare, Rating: RatingR, IntensityMin: 1, IntensityMax: 5,
		ExcludeIDs: map[string]bool{"7": true},
		AnatomyAvailable: map[string]bool{"penis": true, "vagina": true},
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items after exclusion, got %d", len(items))
	}
}

func TestMemoryStoreAudienceScope(t *testing.T) {
	ctx := context.Background()
	couples := testItem("c", TypeTruth, RatingR, 2)
	couples.AudienceScope = "couples"
	groups := testItem("g", TypeTruth, RatingR, 2)
	groups.AudienceScope = "groups"
	all := testItem("a", TypeTruth, RatingR, 2)

	store := NewMemoryStore(couples, groups, all)

	items, err := store.FindCandidates(ctx, Query{
		Type: TypeTruth, Rating: RatingR, IntensityMin: 1, IntensityMax: 5,
		AudienceScopes: []string{"couples", "all"},
		Limit:          10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected couples+all items, got %d", len(items))
	}
	for _, it := range items {
		if it.ID == "g" {
			t.Errorf("groups-scoped item should be filtered out")
		}
	}
}

func TestItemClone(t *testing.T) {
	orig := testItem("1", TypeTruth, RatingG, 1)
	orig.Tags = []string{"verbal"}

	cp := orig.Clone()
	cp.Tags[0] = "changed"
	cp.Script.Steps[0].Do = "changed"

	if orig.Tags[0] != "verbal" {
		t.Errorf("clone shares tags slice with original")
	}
	if orig.Script.Steps[0].Do == "changed" {
		t.Errorf("clone shares script steps with original")
	}
}
