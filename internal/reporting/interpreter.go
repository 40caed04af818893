package reporting

import (
	"fmt"
	"math"
)

// InterpretScore returns a plain-language label for a coverage score (0–1).
func InterpretScore(score float64) string {
	pct := score * 100
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Fair (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

// InterpretGap explains the size of a best-to-worst segment gap within one
// category.
func InterpretGap(gap float64) string {
	pts := gap * 100
	switch {
	case pts >= 20:
		return fmt.Sprintf("Large disparity (%.0f pts)", pts)
	case pts >= 10:
		return fmt.Sprintf("Notable disparity (%.0f pts)", pts)
	case pts >= 5:
		return fmt.Sprintf("Small disparity (%.0f pts)", pts)
	default:
		return fmt.Sprintf("Negligible (%.0f pts)", pts)
	}
}

// InterpretSlope explains a context-responsiveness slope, expressed as the
// score change per ten context questions.
func InterpretSlope(slope float64) string {
	per10 := slope * 10 * 100
	switch {
	case math.Abs(per10) < 1:
		return "Flat: context has little effect"
	case per10 > 0:
		return fmt.Sprintf("Improves with context (+%.1f pts per 10 questions)", per10)
	default:
		return fmt.Sprintf("Degrades with context (%.1f pts per 10 questions)", per10)
	}
}
