package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	primaryCalendarID = "primary"
	pageSize          = 250

	statusCancelled = "cancelled"
)

var ErrMissingEventID = errors.New("remote event id is required")

// CalendarService wraps the Events resource of the user's primary calendar.
// Failures wrap the provider's *googleapi.Error unchanged.
type CalendarService interface {
	List(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error)
	Get(ctx context.Context, accessToken, eventID string) (*RemoteEvent, error)
	Create(ctx context.Context, accessToken string, ev RemoteEvent) (*RemoteEvent, error)
	Update(ctx context.Context, accessToken, eventID string, ev RemoteEvent) (*RemoteEvent, error)
	Delete(ctx context.Context, accessToken, eventID string) error
	Watch(ctx context.Context, accessToken string, ch WatchChannel) (*WatchChannel, error)
}

type WatchChannel struct {
	ID         string
	Address    string
	Token      string
	ResourceID string
	Expiration time.Time
}

type calendarService struct {
	opts []option.ClientOption
}

// NewCalendarService takes extra client options, typically an endpoint
// override for tests or emulators.
func NewCalendarService(opts ...option.ClientOption) CalendarService {
	return &calendarService{opts: opts}
}

func (s *calendarService) client(ctx context.Context, accessToken string) (*gcal.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	opts := make([]option.ClientOption, 0, len(s.opts)+1)
	opts = append(opts, option.WithTokenSource(ts))
	opts = append(opts, s.opts...)

	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	return srv, nil
}

// List returns every event overlapping [timeMin, timeMax), following
// nextPageToken until the last page.
func (s *calendarService) List(ctx context.Context, accessToken string, timeMin, timeMax time.Time) ([]RemoteEvent, error) {
	log := config.WithContext(ctx)
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var events []RemoteEvent
	pages := 0
	err = srv.Events.List(primaryCalendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		OrderBy("startTime").
		MaxResults(pageSize).
		Pages(ctx, func(page *gcal.Events) error {
			pages++
			for _, item := range page.Items {
				events = append(events, fromGoogle(item))
			}
			return nil
		})
	if err != nil {
		log.WithError(err).Error("Failed to list calendar events")
		return nil, fmt.Errorf("list events: %w", err)
	}

	log.Debugf("Listed %d calendar events across %d pages", len(events), pages)
	return events, nil
}

// Get fetches one event by id. A nil event with a nil error means the event
// no longer exists: Google answered 404 or 410, or reports it cancelled.
func (s *calendarService) Get(ctx context.Context, accessToken, eventID string) (*RemoteEvent, error) {
	if eventID == "" {
		return nil, ErrMissingEventID
	}
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	item, err := srv.Events.Get(primaryCalendarID, eventID).Context(ctx).Do()
	if err != nil {
		if IsGone(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	if item.Status == statusCancelled {
		return nil, nil
	}

	out := fromGoogle(item)
	return &out, nil
}

func (s *calendarService) Create(ctx context.Context, accessToken string, ev RemoteEvent) (*RemoteEvent, error) {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	created, err := srv.Events.Insert(primaryCalendarID, toGoogle(ev)).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	out := fromGoogle(created)
	return &out, nil
}

func (s *calendarService) Update(ctx context.Context, accessToken, eventID string, ev RemoteEvent) (*RemoteEvent, error) {
	if eventID == "" {
		return nil, ErrMissingEventID
	}
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	patched, err := srv.Events.Patch(primaryCalendarID, eventID, toGoogle(ev)).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("patch event %s: %w", eventID, err)
	}

	out := fromGoogle(patched)
	return &out, nil
}

// Delete treats 404 and 410 as success so retries stay idempotent.
func (s *calendarService) Delete(ctx context.Context, accessToken, eventID string) error {
	if eventID == "" {
		return ErrMissingEventID
	}
	log := config.WithContext(ctx)
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return err
	}

	err = srv.Events.Delete(primaryCalendarID, eventID).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		if IsGone(err) {
			log.Warnf("Calendar event %s not found on Google, considering deleted.", eventID)
			return nil
		}
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func (s *calendarService) Watch(ctx context.Context, accessToken string, ch WatchChannel) (*WatchChannel, error) {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	req := &gcal.Channel{
		Id:      ch.ID,
		Type:    "web_hook",
		Address: ch.Address,
		Token:   ch.Token,
	}
	if !ch.Expiration.IsZero() {
		req.Expiration = ch.Expiration.UnixMilli()
	}

	resp, err := srv.Events.Watch(primaryCalendarID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("watch events: %w", err)
	}

	out := WatchChannel{
		ID:         resp.Id,
		Address:    ch.Address,
		Token:      resp.Token,
		ResourceID: resp.ResourceId,
	}
	if resp.Expiration > 0 {
		out.Expiration = time.UnixMilli(resp.Expiration).UTC()
	}
	return &out, nil
}

// IsGone reports whether err is a provider 404 or 410.
func IsGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

// ErrorDetail extracts the provider's message when err carries one.
func ErrorDetail(err error) string {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return ""
	}
	if apiErr.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", apiErr.Code, apiErr.Message)
	}
	if apiErr.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", apiErr.Code, apiErr.Body)
	}
	return fmt.Sprintf("HTTP %d", apiErr.Code)
}
