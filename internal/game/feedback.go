package game

import (
	"fmt"
	"math"
)

// Proximity is the distance between guess and secret as a fraction of the range.
func Proximity(guess, secret, maxRange int) float64 {
	if maxRange < 1 {
		return 1
	}
	diff := secret - guess
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(maxRange)
}

// TierFor buckets a proximity using the configured thresholds.
func (r Rules) TierFor(p float64) Tier {
	switch {
	case p < r.NearThreshold:
		return TierNear
	case p < r.CloseThreshold:
		return TierClose
	default:
		return TierFar
	}
}

// BarWidth is the percentage fill of the proximity bar. Never below MinBarWidth.
func (r Rules) BarWidth(p float64) float64 {
	return math.Max(r.MinBarWidth, (1-p)*100)
}

func feedbackFor(guess, secret, maxRange int, r Rules) Feedback {
	p := Proximity(guess, secret, maxRange)
	tier := r.TierFor(p)
	fb := Feedback{
		BarWidth: r.BarWidth(p),
		BarColor: r.Colors[tier],
		Tier:     tier,
	}
	if guess > secret {
		fb.Status = StatusTooHigh
		fb.Hint = "Try a lower number"
	} else {
		fb.Status = StatusTooLow
		fb.Hint = "Try a higher number"
	}
	return fb
}

func rangeHint(maxRange int) string {
	return fmt.Sprintf("Range: 1 to %d", maxRange)
}

func boundsHint(maxRange int) string {
	return fmt.Sprintf("Keep it between 1 - %d!", maxRange)
}
