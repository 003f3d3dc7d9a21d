package validate

import (
	"strings"
	"testing"

	"attuned-server/content"
)

func defaultRules() Rules {
	return Rules{Rating: content.RatingR, TargetLength: 25, AvoidMaybeUntil: 6}
}

func validItem() *content.Item {
	return &content.Item{
		ID:        "1",
		Type:      content.TypeTruth,
		Rating:    content.RatingR,
		Intensity: 2,
		Script: content.Script{Steps: []content.ScriptStep{
			{Actor: "A", Do: "describe the most memorable kiss you two have shared"},
		}},
		Checks: content.Checks{RespectsHardLimits: true},
	}
}

func TestCheckItemValid(t *testing.T) {
	ok, reason := CheckItem(validItem(), 3, defaultRules())
	if !ok {
		t.Errorf("expected valid item, got reason %q", reason)
	}
}

func TestCheckItemIntensityWindow(t *testing.T) {
	it := validItem()
	it.Intensity = 5
	ok, reason := CheckItem(it, 3, defaultRules())
	if ok {
		t.Fatalf("expected failure for intensity 5 at step 3")
	}
	if !strings.Contains(reason, "out of range") {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestCheckItemScriptShape(t *testing.T) {
	it := validItem()
	it.Script.Steps = nil
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || reason != "no steps in script" {
		t.Errorf("expected no-steps failure, got (%v, %q)", ok, reason)
	}

	it = validItem()
	step := it.Script.Steps[0]
	it.Script.Steps = []content.ScriptStep{step, step, step}
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || !strings.Contains(reason, "too many steps") {
		t.Errorf("expected step-count failure, got (%v, %q)", ok, reason)
	}
}

func TestCheckItemWordCount(t *testing.T) {
	it := validItem()
	it.Script.Steps[0].Do = "kiss now"
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || !strings.Contains(reason, "too short") {
		t.Errorf("expected too-short failure, got (%v, %q)", ok, reason)
	}

	it = validItem()
	it.Script.Steps[0].Do = strings.Repeat("slowly ", 21)
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || !strings.Contains(reason, "too long") {
		t.Errorf("expected too-long failure, got (%v, %q)", ok, reason)
	}
}

func TestCheckItemMaybeGating(t *testing.T) {
	it := validItem()
	it.Checks.MaybeItemsPresent = true

	if ok, _ := CheckItem(it, 3, defaultRules()); ok {
		t.Errorf("maybe item must be rejected before step 6")
	}

	// From the threshold step on, maybe items pass. Step 6 is in the
	// build phase, so bump intensity into its window.
	it.Intensity = 3
	if ok, reason := CheckItem(it, 6, defaultRules()); !ok {
		t.Errorf("maybe item should pass at step 6, got %q", reason)
	}
}

func TestCheckItemHardLimits(t *testing.T) {
	it := validItem()
	it.Checks.RespectsHardLimits = false
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || reason != "activity violates hard limits" {
		t.Errorf("expected hard-limit failure, got (%v, %q)", ok, reason)
	}
}

func TestCheckItemRatingHierarchy(t *testing.T) {
	it := validItem()
	it.Rating = content.RatingX
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || !strings.Contains(reason, "incompatible") {
		t.Errorf("expected rating failure, got (%v, %q)", ok, reason)
	}

	// G item in an R session is fine.
	it.Rating = content.RatingG
	if ok, reason := CheckItem(it, 3, defaultRules()); !ok {
		t.Errorf("G item should pass in R session, got %q", reason)
	}
}

func TestCheckItemActorLabels(t *testing.T) {
	it := validItem()
	it.Script.Steps[0].Actor = "C"
	if ok, reason := CheckItem(it, 3, defaultRules()); ok || !strings.Contains(reason, "invalid actor label") {
		t.Errorf("expected actor failure, got (%v, %q)", ok, reason)
	}
}

func TestCheckSequenceWarmupTruths(t *testing.T) {
	truth := validItem()
	dare := validItem()
	dare.Type = content.TypeDare

	entries := []SequenceEntry{
		{Step: 1, Item: dare},
		{Step: 2, Item: dare},
		{Step: 3, Item: truth},
	}
	ok, errs := CheckSequence(entries, defaultRules())
	if ok {
		t.Fatalf("expected warmup-truths failure")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "at least 2 truths") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing warmup-truths error in %v", errs)
	}

	entries = append(entries, SequenceEntry{Step: 4, Item: truth})
	if ok, errs := CheckSequence(entries, defaultRules()); !ok {
		t.Errorf("expected valid sequence with 2 warmup truths, got %v", errs)
	}
}
