package transport

import (
	"fmt"
	"math"
)

// AdjustedMinutes approximates a duration from a baseline (usually walking)
// ETA in seconds: round(baseline / multiplier / 60). ok is false when either
// input is zero, meaning "not computable". The result is a heuristic, not an
// authoritative ETA.
func AdjustedMinutes(baselineSeconds, multiplier float64) (minutes int, ok bool) {
	if baselineSeconds == 0 || multiplier == 0 {
		return 0, false
	}
	return int(math.Round(baselineSeconds / multiplier / 60)), true
}

func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%d min", minutes)
}

// FormatDuration renders seconds the way the routing provider does for
// short trips: "7 mins", "1 hour 5 mins".
func FormatDuration(seconds float64) string {
	total := int(math.Round(seconds / 60))
	hours, mins := total/60, total%60
	switch {
	case hours == 0:
		return plural(mins, "min")
	case mins == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " " + plural(mins, "min")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
