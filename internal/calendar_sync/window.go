package calendarsync

import (
	"time"

	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	util "github.com/saulo-duarte/chronos-calendar-sync/internal/utils"
)

// Window is the half-open interval [TimeMin, TimeMax) a pass reconciles.
type Window struct {
	TimeMin time.Time `json:"timeMin"`
	TimeMax time.Time `json:"timeMax"`
}

func (w Window) Contains(ev *calendarevent.CalendarEvent) bool {
	return ev.Overlaps(w.TimeMin, w.TimeMax)
}

// ContainsRemote applies the Contains rule to a remote event, reading
// all-day dates as UTC midnight. Events with unreadable times are kept so
// the pass reports them.
func (w Window) ContainsRemote(r googlecalendar.RemoteEvent) bool {
	start, err := r.Start.Time()
	if err != nil {
		return true
	}
	end, err := r.End.Time()
	if err != nil {
		return true
	}
	return end.After(w.TimeMin) && start.Before(w.TimeMax)
}

type WindowResolver struct {
	span time.Duration
	now  func() time.Time
}

func NewWindowResolver(days int) *WindowResolver {
	if days <= 0 {
		days = 90
	}
	return &WindowResolver{span: util.Days(days), now: time.Now}
}

// Resolve picks the pass window. Caller bounds win when they parse; the
// lower bound otherwise falls back to the earliest known start or now minus
// the span, the upper bound to now plus the span. An empty or inverted result is
// repaired by moving the upper bound to min plus the span.
func (r *WindowResolver) Resolve(known []calendarevent.CalendarEvent, requestedMin, requestedMax string) Window {
	now := r.now().UTC()

	timeMin, ok := util.ParseInstant(requestedMin)
	if !ok {
		timeMin = now.Add(-r.span)
		if earliest, found := earliestStart(known); found {
			timeMin = earliest
		}
	}

	timeMax, ok := util.ParseInstant(requestedMax)
	if !ok {
		timeMax = now.Add(r.span)
	}

	if !timeMax.After(timeMin) {
		timeMax = timeMin.Add(r.span)
	}

	return Window{TimeMin: timeMin, TimeMax: timeMax}
}

func earliestStart(events []calendarevent.CalendarEvent) (time.Time, bool) {
	var earliest time.Time
	found := false
	for i := range events {
		start := events[i].StartAt.UTC()
		if !found || start.Before(earliest) {
			earliest = start
			found = true
		}
	}
	return earliest, found
}
