package calendarevent

import "time"

type Source string

const (
	SourceSystem Source = "system"
	SourceGoogle Source = "google"
)

func (s Source) IsValid() bool {
	return s == SourceSystem || s == SourceGoogle
}

// CalendarEvent is the system-of-record row. For all-day events StartAt and
// EndAt hold midnight UTC of the calendar dates, with EndAt exclusive.
// UpdatedAt is written explicitly and never touched by gorm, because it is
// the only input to conflict resolution.
type CalendarEvent struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	UserID          string    `gorm:"type:text;not null;index" json:"user_id"`
	Title           string    `gorm:"type:text;not null" json:"title"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	StartAt         time.Time `gorm:"not null" json:"start_at"`
	EndAt           time.Time `gorm:"not null" json:"end_at"`
	AllDay          bool      `gorm:"not null;default:false" json:"all_day"`
	Source          Source    `gorm:"type:text;not null;default:system" json:"source"`
	RemoteEventID   *string   `gorm:"type:text" json:"remote_event_id,omitempty"`
	UpdatedBySource Source    `gorm:"type:text;not null;default:system" json:"updated_by_source"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

func (e *CalendarEvent) IsLinked() bool {
	return e.RemoteEventID != nil && *e.RemoteEventID != ""
}

// Overlaps reports whether the event intersects [min, max).
func (e *CalendarEvent) Overlaps(min, max time.Time) bool {
	return e.EndAt.After(min) && e.StartAt.Before(max)
}
