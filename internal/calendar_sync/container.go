package calendarsync

import (
	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

type CalendarSyncContainer struct {
	Service SyncService
	Handler *Handler
}

func NewCalendarSyncContainer(
	eventRepo calendarevent.CalendarEventRepository,
	tokenManager token.TokenManager,
	calendarService googlecalendar.CalendarService,
	settings config.SyncSettings,
) *CalendarSyncContainer {
	service := NewService(eventRepo, tokenManager, calendarService, settings)
	handler := NewHandler(service)

	return &CalendarSyncContainer{
		Service: service,
		Handler: handler,
	}
}
