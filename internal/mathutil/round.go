// Package mathutil holds price arithmetic helpers shared by the bar
// pipeline. Prices are snapped to an instrument's tick size before they are
// compared or stored.
package mathutil

import (
	"math"
	"strconv"
	"strings"
)

// RoundTo rounds value to the nearest multiple of target. A non-positive
// target returns value unchanged.
func RoundTo(value, target float64) float64 {
	if target <= 0 {
		return value
	}
	return math.Round(value/target) * target
}

// FloorTo rounds value down to a multiple of target.
func FloorTo(value, target float64) float64 {
	if target <= 0 {
		return value
	}
	return math.Floor(value/target) * target
}

// CeilTo rounds value up to a multiple of target.
func CeilTo(value, target float64) float64 {
	if target <= 0 {
		return value
	}
	return math.Ceil(value/target) * target
}

// Digits returns the number of decimal places in the shortest decimal
// representation of value. Used to derive display precision from a tick size
// (0.001 -> 3).
func Digits(value float64) int {
	s := strconv.FormatFloat(value, 'g', -1, 64)

	// Shortest form may be scientific: 1e-05 has 5 decimal places.
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp >= 0 {
			return 0
		}
		digits := -exp
		if j := strings.Index(s[:i], "."); j >= 0 {
			digits += len(s[:i]) - j - 1
		}
		return digits
	}

	if i := strings.Index(s, "."); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
