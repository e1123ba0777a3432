package scoring

import (
	"math"
	"strings"
)

// fiveScaleCeiling separates scores already on the 0-5 grade scale from
// percentages. It sits slightly above 5.0 to absorb floating-point noise in
// backend responses; the exact value is part of the wire compatibility
// contract and must not change.
const fiveScaleCeiling = 5.01

// passThreshold is the minimum 0-5 grade that counts as approved (3.5/5,
// equivalent to 70%).
const passThreshold = 3.5

// Report is the canonical score presentation: a 0-100 percentage, the 0-5
// grade shown to the user, and the pass verdict. Consumers must take the
// verdict from here rather than re-deriving it.
type Report struct {
	Percent   float64 `json:"percent"`
	FiveScale float64 `json:"fiveScale"`
	Passed    bool    `json:"passed"`
}

// Normalize folds the ambiguous score representations the evaluate endpoint
// may return into a single Report. score and status are optional; when the
// score is absent the percentage is computed from the correct/total ratio.
// The function is total: out-of-range scores are clamped, never rejected.
func Normalize(score *float64, status *string, correctCount, total int) Report {
	var percent float64
	switch {
	case score != nil && *score <= fiveScaleCeiling:
		// Already a 0-5 grade.
		percent = clampPercent(round2(*score / 5 * 100))
	case score != nil:
		// Already a percentage.
		percent = clampPercent(round2(*score))
	case total > 0:
		percent = round2(float64(correctCount) / float64(total) * 100)
	}

	five := round2(percent / 100 * 5)

	var passed bool
	if status != nil && *status != "" {
		s := strings.ToLower(*status)
		passed = strings.Contains(s, "aprob") || strings.Contains(s, "pass")
	} else {
		passed = five >= passThreshold
	}

	return Report{Percent: percent, FiveScale: five, Passed: passed}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
