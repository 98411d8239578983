package calc

import (
	"math"
)

// Fraction returns loaded/total clamped to [0, 1]. Zero when total is unknown.
func Fraction(loaded, total int64) float64 {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	if loaded >= total {
		return 1
	}
	return float64(loaded) / float64(total)
}

// Percent scales a fraction to the 0-100 progress range.
func Percent(fraction float64) int {
	if math.IsNaN(fraction) || fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return 100
	}
	return int(fraction * 100)
}
