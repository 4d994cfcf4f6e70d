package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultConflictTolerance = time.Second
	DefaultWindowDays        = 90
	DefaultRefreshMargin     = 2 * time.Minute
)

// SyncSettings holds the tunables of a reconciliation pass.
type SyncSettings struct {
	ConflictTolerance time.Duration
	WindowDays        int
	RefreshMargin     time.Duration
	// CalendarEndpoint overrides the Google Calendar base URL. Empty means
	// the library default.
	CalendarEndpoint string
}

func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		ConflictTolerance: DefaultConflictTolerance,
		WindowDays:        DefaultWindowDays,
		RefreshMargin:     DefaultRefreshMargin,
	}
}

func LoadSyncSettings() (SyncSettings, error) {
	s := DefaultSyncSettings()

	if v := os.Getenv("SYNC_CONFLICT_TOLERANCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return s, fmt.Errorf("invalid SYNC_CONFLICT_TOLERANCE %q", v)
		}
		s.ConflictTolerance = d
	}

	if v := os.Getenv("SYNC_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return s, fmt.Errorf("invalid SYNC_WINDOW_DAYS %q", v)
		}
		s.WindowDays = n
	}

	if v := os.Getenv("TOKEN_REFRESH_MARGIN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return s, fmt.Errorf("invalid TOKEN_REFRESH_MARGIN %q", v)
		}
		s.RefreshMargin = d
	}

	s.CalendarEndpoint = os.Getenv("GOOGLE_CALENDAR_ENDPOINT")
	return s, nil
}
