package model

import "fmt"

// Interval tags the time bucket a bar aggregates over.
type Interval string

const (
	IntervalMinute Interval = "1m"
	IntervalHour   Interval = "1h"
	IntervalDaily  Interval = "d"
)

// Valid reports whether the interval is one of the known tags.
func (i Interval) Valid() bool {
	switch i {
	case IntervalMinute, IntervalHour, IntervalDaily:
		return true
	}
	return false
}

// WindowTag returns the stream tag for a window of n base intervals,
// e.g. WindowTag(5) on IntervalMinute is "5m".
func (i Interval) WindowTag(n int) string {
	if n <= 1 {
		return string(i)
	}
	switch i {
	case IntervalMinute:
		return fmt.Sprintf("%dm", n)
	case IntervalHour:
		return fmt.Sprintf("%dh", n)
	default:
		return string(i)
	}
}
