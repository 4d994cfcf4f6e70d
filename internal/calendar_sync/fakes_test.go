package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

var errBoom = errors.New("boom")

type memStore struct {
	mu        sync.Mutex
	rows      map[string]calendarevent.CalendarEvent
	deletes   [][]string
	failList  bool
	failFind  bool
	failWrite map[string]bool
}

func newMemStore(events ...calendarevent.CalendarEvent) *memStore {
	s := &memStore{rows: map[string]calendarevent.CalendarEvent{}, failWrite: map[string]bool{}}
	for _, ev := range events {
		s.rows[ev.ID] = ev
	}
	return s
}

func (s *memStore) get(id string) (calendarevent.CalendarEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.rows[id]
	return ev, ok
}

func (s *memStore) sorted(keep func(*calendarevent.CalendarEvent) bool) []calendarevent.CalendarEvent {
	var out []calendarevent.CalendarEvent
	for _, ev := range s.rows {
		ev := ev
		if keep(&ev) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (s *memStore) List(_ context.Context, userID string, timeMin, timeMax *time.Time) ([]calendarevent.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errBoom
	}
	return s.sorted(func(ev *calendarevent.CalendarEvent) bool {
		if ev.UserID != userID {
			return false
		}
		if timeMin != nil && !ev.EndAt.After(*timeMin) {
			return false
		}
		if timeMax != nil && !ev.StartAt.Before(*timeMax) {
			return false
		}
		return true
	}), nil
}

func (s *memStore) FindByIDs(_ context.Context, userID string, ids []string) ([]calendarevent.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errBoom
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return s.sorted(func(ev *calendarevent.CalendarEvent) bool {
		return ev.UserID == userID && want[ev.ID]
	}), nil
}

func (s *memStore) FindByRemoteIDs(_ context.Context, userID string, remoteIDs []string) ([]calendarevent.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errBoom
	}
	want := map[string]bool{}
	for _, id := range remoteIDs {
		want[id] = true
	}
	return s.sorted(func(ev *calendarevent.CalendarEvent) bool {
		return ev.UserID == userID && ev.IsLinked() && want[*ev.RemoteEventID]
	}), nil
}

func (s *memStore) Upsert(_ context.Context, events []calendarevent.CalendarEvent) ([]calendarevent.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if s.failWrite[ev.ID] || s.failWrite[ev.Title] {
			return nil, errBoom
		}
	}
	for _, ev := range events {
		s.rows[ev.ID] = ev
	}
	return events, nil
}

func (s *memStore) Delete(_ context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if s.failWrite[id] {
			return errBoom
		}
	}
	s.deletes = append(s.deletes, ids)
	for _, id := range ids {
		if ev, ok := s.rows[id]; ok && ev.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

type fakeTokens struct {
	err   error
	calls int
}

func (f *fakeTokens) EnsureValidToken(_ context.Context, userID string) (*token.TokenRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &token.TokenRecord{UserID: userID, AccessToken: "access-" + userID}, nil
}

type fakeCalendar struct {
	mu       sync.Mutex
	events   map[string]googlecalendar.RemoteEvent
	clock    time.Time
	nextID   int
	failList error
	failOn   map[string]bool
	failGet  map[string]bool
	// zone places all-day events the way Google does for a calendar in
	// that time zone. Nil reads their dates as UTC.
	zone *time.Location

	created []googlecalendar.RemoteEvent
	fetched []string
	updated []string
	deleted []string
}

func newFakeCalendar(clock time.Time, events ...googlecalendar.RemoteEvent) *fakeCalendar {
	c := &fakeCalendar{
		events:  map[string]googlecalendar.RemoteEvent{},
		clock:   clock,
		failOn:  map[string]bool{},
		failGet: map[string]bool{},
	}
	for _, ev := range events {
		c.events[ev.ID] = ev
	}
	return c
}

func (c *fakeCalendar) List(_ context.Context, _ string, timeMin, timeMax time.Time) ([]googlecalendar.RemoteEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failList != nil {
		return nil, c.failList
	}
	var out []googlecalendar.RemoteEvent
	for _, ev := range c.events {
		start, end := c.placed(ev.Start), c.placed(ev.End)
		if end.After(timeMin) && start.Before(timeMax) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCalendar) placed(t googlecalendar.EventTime) time.Time {
	if t.IsAllDay() && c.zone != nil {
		day, _ := time.ParseInLocation("2006-01-02", t.Date, c.zone)
		return day
	}
	at, _ := t.Time()
	return at
}

func (c *fakeCalendar) Get(_ context.Context, _ string, eventID string) (*googlecalendar.RemoteEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = append(c.fetched, eventID)
	if c.failGet[eventID] {
		return nil, errBoom
	}
	ev, ok := c.events[eventID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (c *fakeCalendar) Create(_ context.Context, _ string, ev googlecalendar.RemoteEvent) (*googlecalendar.RemoteEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn[ev.Summary] {
		return nil, errBoom
	}
	c.nextID++
	ev.ID = fmt.Sprintf("remote-%d", c.nextID)
	ev.Updated = c.clock
	c.events[ev.ID] = ev
	c.created = append(c.created, ev)
	return &ev, nil
}

func (c *fakeCalendar) Update(_ context.Context, _ string, eventID string, ev googlecalendar.RemoteEvent) (*googlecalendar.RemoteEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn[ev.Summary] || c.failOn[eventID] {
		return nil, errBoom
	}
	ev.ID = eventID
	ev.Updated = c.clock
	c.events[eventID] = ev
	c.updated = append(c.updated, eventID)
	return &ev, nil
}

func (c *fakeCalendar) Delete(_ context.Context, _ string, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn[eventID] {
		return errBoom
	}
	delete(c.events, eventID)
	c.deleted = append(c.deleted, eventID)
	return nil
}

func (c *fakeCalendar) Watch(_ context.Context, _ string, ch googlecalendar.WatchChannel) (*googlecalendar.WatchChannel, error) {
	ch.ResourceID = "resource-1"
	return &ch, nil
}
