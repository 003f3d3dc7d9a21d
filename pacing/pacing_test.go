package pacing

import (
	"testing"

	"attuned-server/content"
)

func TestWindowPhases(t *testing.T) {
	cases := []struct {
		step     int
		min, max int
	}{
		{1, 1, 2},
		{5, 1, 2},
		{6, 2, 3},
		{15, 2, 3},
		{16, 4, 5},
		{22, 4, 5},
		{23, 2, 3},
		{25, 2, 3},
	}
	for _, c := range cases {
		min, max := Window(c.step, 25, content.RatingR)
		if min != c.min || max != c.max {
			t.Errorf("Window(%d) = [%d,%d], want [%d,%d]", c.step, min, max, c.min, c.max)
		}
	}
}

func TestWindowGClamp(t *testing.T) {
	for step := 1; step <= 25; step++ {
		min, max := Window(step, 25, content.RatingG)
		if min < 1 || max > 2 {
			t.Errorf("G-rated Window(%d) = [%d,%d], must stay within [1,2]", step, min, max)
		}
	}
}

func TestWindowCurveShape(t *testing.T) {
	// Non-decreasing through the peak, non-increasing after it.
	const target = 25
	peakEnd := int(float64(target) * 0.88)
	prevMax := 0
	for step := 1; step <= peakEnd; step++ {
		_, max := Window(step, target, content.RatingX)
		if max < prevMax {
			t.Errorf("max intensity decreased before peak end at step %d: %d < %d", step, max, prevMax)
		}
		prevMax = max
	}
	for step := peakEnd + 1; step <= target; step++ {
		_, max := Window(step, target, content.RatingX)
		if max > prevMax {
			t.Errorf("max intensity increased after peak at step %d: %d > %d", step, max, prevMax)
		}
		prevMax = max
	}
}

func TestPhaseName(t *testing.T) {
	cases := []struct {
		step int
		want string
	}{
		{1, "warmup"},
		{5, "warmup"},
		{6, "build"},
		{15, "build"},
		{16, "peak"},
		{22, "peak"},
		{23, "afterglow"},
	}
	for _, c := range cases {
		if got := PhaseName(c.step, 25); got != c.want {
			t.Errorf("PhaseName(%d) = %q, want %q", c.step, got, c.want)
		}
	}
}

func TestPickTypeForcedMode(t *testing.T) {
	if got := PickType(10, 25, 0, 10, content.TypeTruth); got != content.TypeTruth {
		t.Errorf("forced truth mode returned %s", got)
	}
	if got := PickType(2, 25, 0, 0, content.TypeDare); got != content.TypeDare {
		t.Errorf("forced dare mode returned %s", got)
	}
}

func TestPickTypeWarmupTruths(t *testing.T) {
	// First pick of an empty session defaults to truth.
	if got := PickType(1, 25, 0, 0, ""); got != content.TypeTruth {
		t.Errorf("first pick = %s, want truth", got)
	}
	// Warmup forces truth until 2 have been shown.
	if got := PickType(3, 25, 1, 1, ""); got != content.TypeTruth {
		t.Errorf("warmup with 1 truth = %s, want truth", got)
	}
}

func TestPickTypeRatioSteering(t *testing.T) {
	// Behind on truths.
	if got := PickType(10, 25, 2, 6, ""); got != content.TypeTruth {
		t.Errorf("low truth ratio = %s, want truth", got)
	}
	// Behind on dares.
	if got := PickType(10, 25, 6, 2, ""); got != content.TypeDare {
		t.Errorf("high truth ratio = %s, want dare", got)
	}
	// Balanced: alternate by whichever has been shown less, ties favor truth.
	if got := PickType(10, 25, 5, 4, ""); got != content.TypeDare {
		t.Errorf("balanced with more truths = %s, want dare", got)
	}
	if got := PickType(10, 25, 4, 4, ""); got != content.TypeTruth {
		t.Errorf("exact tie = %s, want truth", got)
	}
}
