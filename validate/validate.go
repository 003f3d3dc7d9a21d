// Package validate checks a fully assembled turn item against
// structural and session-policy rules.
package validate

import (
	"fmt"
	"strings"

	"attuned-server/content"
	"attuned-server/pacing"
)

const (
	maxScriptSteps = 2
	minStepWords   = 3
	maxStepWords   = 20
)

// Rules carries the session-level validation parameters.
type Rules struct {
	Rating       content.Rating
	TargetLength int
	// AvoidMaybeUntil is the step before which uncertain items are
	// rejected.
	AvoidMaybeUntil int
}

// CheckItem validates one item at the given step. It short-circuits on
// the first failing rule and returns a specific reason string; an empty
// reason means the item passed.
func CheckItem(item *content.Item, step int, rules Rules) (bool, string) {
	// 1. Intensity inside the pacing window for this step.
	min, max := pacing.Window(step, rules.TargetLength, rules.Rating)
	if item.Intensity < min || item.Intensity > max {
		return false, fmt.Sprintf("intensity %d out of range [%d-%d] for step %d", item.Intensity, min, max, step)
	}

	// 2. Script has 1-2 steps.
	steps := item.Script.Steps
	if len(steps) == 0 {
		return false, "no steps in script"
	}
	if len(steps) > maxScriptSteps {
		return false, fmt.Sprintf("too many steps: %d (max %d)", len(steps), maxScriptSteps)
	}

	// 3. Each instruction is 3-20 words.
	for i, s := range steps {
		words := len(strings.Fields(s.Do))
		if words < minStepWords {
			return false, fmt.Sprintf("step %d too short: %d words (min %d)", i+1, words, minStepWords)
		}
		if words > maxStepWords {
			return false, fmt.Sprintf("step %d too long: %d words (max %d)", i+1, words, maxStepWords)
		}
	}

	// 4. No uncertain items before the configured step.
	if step < rules.AvoidMaybeUntil && item.Checks.MaybeItemsPresent {
		return false, fmt.Sprintf("no maybe items allowed before step %d", rules.AvoidMaybeUntil)
	}

	// 5. Item must be confirmed boundary-safe.
	if !item.Checks.RespectsHardLimits {
		return false, "activity violates hard limits"
	}

	// 6. Rating must fit the session on the G < R < X scale.
	if !item.Rating.CompatibleWith(rules.Rating) {
		return false, fmt.Sprintf("activity rating %s incompatible with session rating %s", item.Rating, rules.Rating)
	}

	// 7. Actor labels must be one of the two player tags.
	for _, s := range steps {
		if s.Actor != "A" && s.Actor != "B" {
			return false, fmt.Sprintf("invalid actor label: %s (must be A or B)", s.Actor)
		}
	}

	return true, ""
}

// SequenceEntry is the minimal view of a batch-generated turn used by
// CheckSequence.
type SequenceEntry struct {
	Step int
	Item *content.Item
}

// CheckSequence validates a whole batch-generated session: every item
// individually, plus the warmup requirement of at least 2 truths among
// the first 5 steps.
func CheckSequence(entries []SequenceEntry, rules Rules) (bool, []string) {
	var errs []string
	for _, e := range entries {
		if ok, reason := CheckItem(e.Item, e.Step, rules); !ok {
			errs = append(errs, fmt.Sprintf("step %d: %s", e.Step, reason))
		}
	}

	warmupTruths := 0
	for _, e := range entries {
		if e.Step <= 5 && e.Item.Type == content.TypeTruth {
			warmupTruths++
		}
	}
	if warmupTruths < 2 {
		errs = append(errs, fmt.Sprintf("warmup (steps 1-5) must have at least 2 truths, found %d", warmupTruths))
	}

	return len(errs) == 0, errs
}
