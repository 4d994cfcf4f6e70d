package calendarsync

import (
	"fmt"
	"time"

	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	util "github.com/saulo-duarte/chronos-calendar-sync/internal/utils"
)

const oneDay = 24 * time.Hour

// toRemote renders a local row as a Google event body tagged with the
// back-reference to its local id.
func toRemote(ev *calendarevent.CalendarEvent) googlecalendar.RemoteEvent {
	out := googlecalendar.RemoteEvent{
		Summary:     ev.Title,
		Description: ev.Description,
		BackRef: &googlecalendar.BackReference{
			CalendarEventID: ev.ID,
			UpdatedBySource: string(calendarevent.SourceSystem),
		},
	}

	if ev.AllDay {
		start := util.StartOfDayUTC(ev.StartAt)
		end := util.StartOfDayUTC(ev.EndAt)
		if !end.After(start) {
			end = start.Add(oneDay)
		}
		out.Start = googlecalendar.DateOf(start)
		out.End = googlecalendar.DateOf(end)
		return out
	}

	out.Start = googlecalendar.DateTimeOf(ev.StartAt)
	out.End = googlecalendar.DateTimeOf(ev.EndAt)
	return out
}

// applyRemote copies the remote state onto row and marks Google as the
// last writer. row.UpdatedAt takes the remote modification time so the
// next push sees the pair as in sync.
func applyRemote(row *calendarevent.CalendarEvent, r googlecalendar.RemoteEvent, now time.Time) error {
	start, err := r.Start.Time()
	if err != nil {
		return fmt.Errorf("remote event %s: invalid start: %w", r.ID, err)
	}
	end, err := r.End.Time()
	if err != nil {
		return fmt.Errorf("remote event %s: invalid end: %w", r.ID, err)
	}

	remoteID := r.ID
	row.Title = r.Summary
	row.Description = r.Description
	row.StartAt = start
	row.EndAt = end
	row.AllDay = r.Start.IsAllDay()
	row.RemoteEventID = &remoteID
	row.UpdatedBySource = calendarevent.SourceGoogle

	row.UpdatedAt = r.Updated
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	return nil
}

// sameContent ignores bookkeeping columns. Times compare at whole seconds,
// the precision Google keeps.
func sameContent(a, b *calendarevent.CalendarEvent) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.StartAt.Truncate(time.Second).Equal(b.StartAt.Truncate(time.Second)) &&
		a.EndAt.Truncate(time.Second).Equal(b.EndAt.Truncate(time.Second)) &&
		a.AllDay == b.AllDay &&
		remoteID(a) == remoteID(b)
}

func remoteID(ev *calendarevent.CalendarEvent) string {
	if ev.RemoteEventID == nil {
		return ""
	}
	return *ev.RemoteEventID
}
