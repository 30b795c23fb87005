package utils

import (
	"fmt"
	"math"
	"time"
)

// ParseRFC3339 returns a time from the provided string or an error.
// Fractional seconds, as emitted by HAR capture tools, are accepted.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// MillisToDuration converts a millisecond count into a duration,
// rounding to the nearest microsecond so HAR fractional timings survive.
func MillisToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms*1000)) * time.Microsecond
}

// DurationMillis converts a duration into whole milliseconds for
// message substitution.
func DurationMillis(d time.Duration) int64 {
	return d.Milliseconds()
}
