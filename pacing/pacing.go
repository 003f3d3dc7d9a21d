// Package pacing derives the allowed intensity window and the desired
// truth/dare balance from a turn's position in the session.
package pacing

import "attuned-server/content"

// Phase boundaries as fractions of the target length.
const (
	warmupEnd = 0.2
	buildEnd  = 0.6
	peakEnd   = 0.88
)

// Window returns the [min,max] intensity band permitted at the given
// step. The curve rises through warmup/build to the peak and falls back
// for the afterglow; G-rated sessions stay clamped to [1,2] throughout.
func Window(step, targetLength int, rating content.Rating) (min, max int) {
	if targetLength <= 0 {
		targetLength = 25
	}
	switch {
	case step <= int(float64(targetLength)*warmupEnd):
		min, max = 1, 2
	case step <= int(float64(targetLength)*buildEnd):
		min, max = 2, 3
	case step <= int(float64(targetLength)*peakEnd):
		min, max = 4, 5
	default:
		min, max = 2, 3
	}
	if rating == content.RatingG {
		if min > 2 {
			min = 1
		}
		if max > 2 {
			max = 2
		}
	}
	return min, max
}

// PhaseName returns the human-readable phase label for a step.
func PhaseName(step, targetLength int) string {
	if targetLength <= 0 {
		targetLength = 25
	}
	switch {
	case step <= int(float64(targetLength)*warmupEnd):
		return "warmup"
	case step <= int(float64(targetLength)*buildEnd):
		return "build"
	case step <= int(float64(targetLength)*peakEnd):
		return "peak"
	default:
		return "afterglow"
	}
}

// PickType chooses truth or dare for the next slot. mode forces a type
// when set to one of them; warmup guarantees at least two truths; after
// that the running ratio is steered back toward 50/50 and ties alternate
// by whichever type has been shown less (favoring truth).
func PickType(step, targetLength, truths, dares int, mode content.Type) content.Type {
	if mode == content.TypeTruth || mode == content.TypeDare {
		return mode
	}
	if targetLength <= 0 {
		targetLength = 25
	}

	if step <= int(float64(targetLength)*warmupEnd) && truths < 2 {
		return content.TypeTruth
	}

	total := truths + dares
	if total == 0 {
		return content.TypeTruth
	}

	truthRatio := float64(truths) / float64(total)
	switch {
	case truthRatio < 0.4:
		return content.TypeTruth
	case truthRatio > 0.6:
		return content.TypeDare
	case truths > dares:
		return content.TypeDare
	default:
		return content.TypeTruth
	}
}
