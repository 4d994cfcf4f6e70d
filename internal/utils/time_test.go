package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInstant(t *testing.T) {
	cases := map[string]struct {
		in   string
		want time.Time
		ok   bool
	}{
		"utc":        {"2024-01-10T00:00:00Z", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), true},
		"offset":     {"2024-01-10T02:00:00+02:00", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), true},
		"fractional": {"2024-01-10T00:00:00.250Z", time.Date(2024, 1, 10, 0, 0, 0, 250e6, time.UTC), true},
		"padded":     {"  2024-01-10T00:00:00Z ", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), true},
		"empty":      {"", time.Time{}, false},
		"dateOnly":   {"2024-01-10", time.Time{}, false},
		"garbage":    {"next tuesday", time.Time{}, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseInstant(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.True(t, tc.want.Equal(got), "got %s", got)
			if ok {
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestStartOfDayUTC(t *testing.T) {
	in := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), StartOfDayUTC(in))
}

func TestToTimePtr(t *testing.T) {
	assert.Nil(t, ToTimePtr(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, *ToTimePtr(now))
}
