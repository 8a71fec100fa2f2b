package parse

import "time"

// ParseTimestamp accepts RFC3339 (with or without fractional seconds) and
// zone-less ISO8601. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	// try RFC3339
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	// try RFC3339Nano
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// try ISO8601 without timezone
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
