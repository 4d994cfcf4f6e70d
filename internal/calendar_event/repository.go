package calendarevent

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CalendarEventRepository interface {
	List(ctx context.Context, userID string, timeMin, timeMax *time.Time) ([]CalendarEvent, error)
	FindByIDs(ctx context.Context, userID string, ids []string) ([]CalendarEvent, error)
	FindByRemoteIDs(ctx context.Context, userID string, remoteIDs []string) ([]CalendarEvent, error)
	Upsert(ctx context.Context, events []CalendarEvent) ([]CalendarEvent, error)
	Delete(ctx context.Context, userID string, ids []string) error
}

type calendarEventRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) CalendarEventRepository {
	return &calendarEventRepository{db: db}
}

// List returns the user's events overlapping [timeMin, timeMax). Either
// bound may be nil.
func (r *calendarEventRepository) List(ctx context.Context, userID string, timeMin, timeMax *time.Time) ([]CalendarEvent, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if timeMin != nil {
		q = q.Where("end_at > ?", timeMin.UTC())
	}
	if timeMax != nil {
		q = q.Where("start_at < ?", timeMax.UTC())
	}

	var events []CalendarEvent
	if err := q.Order("start_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *calendarEventRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]CalendarEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var events []CalendarEvent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *calendarEventRepository) FindByRemoteIDs(ctx context.Context, userID string, remoteIDs []string) ([]CalendarEvent, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}

	var events []CalendarEvent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND remote_event_id IN ?", userID, remoteIDs).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Upsert inserts or fully overwrites rows keyed by id.
func (r *calendarEventRepository) Upsert(ctx context.Context, events []CalendarEvent) ([]CalendarEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *calendarEventRepository) Delete(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&CalendarEvent{}).Error
}
