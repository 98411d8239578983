package maths

import (
	"math"
)

// FloorFloat64ToInt truncates toward negative infinity; NaN and Inf map to 0.
func FloorFloat64ToInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v))
}
