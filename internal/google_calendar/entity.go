package googlecalendar

import (
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

const (
	PropCalendarEventID = "calendar_event_id"
	PropUpdatedBySource = "updated_by_source"

	dateLayout = "2006-01-02"
)

// EventTime is either an all-day Date ("2006-01-02") or a DateTime
// (RFC 3339) with an optional IANA TimeZone.
type EventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

func (t EventTime) IsAllDay() bool {
	return t.Date != ""
}

// Time returns the instant the value denotes. All-day dates resolve to
// midnight UTC.
func (t EventTime) Time() (time.Time, error) {
	if t.Date != "" {
		return time.ParseInLocation(dateLayout, t.Date, time.UTC)
	}
	parsed, err := time.Parse(time.RFC3339, t.DateTime)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func DateTimeOf(t time.Time) EventTime {
	return EventTime{DateTime: t.UTC().Format(time.RFC3339), TimeZone: "UTC"}
}

func DateOf(t time.Time) EventTime {
	return EventTime{Date: t.UTC().Format(dateLayout)}
}

// BackReference ties a remote event to the local row that created it.
type BackReference struct {
	CalendarEventID string
	UpdatedBySource string
}

type RemoteEvent struct {
	ID          string
	Summary     string
	Description string
	Start       EventTime
	End         EventTime
	Updated     time.Time
	// BackRef is nil for events that never came from the system calendar.
	BackRef *BackReference
}

func fromGoogle(e *gcal.Event) RemoteEvent {
	ev := RemoteEvent{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
	}
	if e.Start != nil {
		ev.Start = EventTime{Date: e.Start.Date, DateTime: e.Start.DateTime, TimeZone: e.Start.TimeZone}
	}
	if e.End != nil {
		ev.End = EventTime{Date: e.End.Date, DateTime: e.End.DateTime, TimeZone: e.End.TimeZone}
	}
	if e.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, e.Updated); err == nil {
			ev.Updated = updated.UTC()
		}
	}
	if e.ExtendedProperties != nil {
		if id := e.ExtendedProperties.Private[PropCalendarEventID]; id != "" {
			ev.BackRef = &BackReference{
				CalendarEventID: id,
				UpdatedBySource: e.ExtendedProperties.Private[PropUpdatedBySource],
			}
		}
	}
	return ev
}

func toGoogle(ev RemoteEvent) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       toGoogleTime(ev.Start),
		End:         toGoogleTime(ev.End),
	}
	if ev.BackRef != nil {
		out.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{
				PropCalendarEventID: ev.BackRef.CalendarEventID,
				PropUpdatedBySource: ev.BackRef.UpdatedBySource,
			},
		}
	}
	return out
}

// toGoogleTime nulls the other representation so a patch can switch an
// event between timed and all-day.
func toGoogleTime(t EventTime) *gcal.EventDateTime {
	if t.Date != "" {
		return &gcal.EventDateTime{Date: t.Date, NullFields: []string{"DateTime", "TimeZone"}}
	}
	return &gcal.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone, NullFields: []string{"Date"}}
}
