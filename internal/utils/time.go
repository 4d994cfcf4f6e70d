package util

import (
	"strings"
	"time"
)

// ParseInstant accepts RFC 3339 timestamps, with or without fractional
// seconds, and returns them in UTC. Empty or malformed input reports false.
func ParseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func ToTimePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// StartOfDayUTC truncates t to midnight UTC of its UTC calendar date.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
