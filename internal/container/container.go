package container

import (
	"context"
	"log"
	"os"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/auth"
	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	calendarsync "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_sync"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

type Container struct {
	Settings                config.SyncSettings
	GoogleCalendarContainer *googlecalendar.GoogleCalendarContainer
	TokenContainer          *token.TokenContainer
	CalendarEventContainer  *calendarevent.CalendarEventContainer
	CalendarSyncContainer   *calendarsync.CalendarSyncContainer
}

func New() *Container {
	config.Init()
	auth.Init()
	config.InitCrypto()

	settings, err := config.LoadSyncSettings()
	if err != nil {
		log.Fatalf("invalid sync settings: %v", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if err := config.Connect(context.Background(), dsn); err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	calendarContainer := googlecalendar.NewGoogleCalendarContainer(settings.CalendarEndpoint)
	if calendarContainer.OAuthConfig.ClientID == "" || calendarContainer.OAuthConfig.ClientSecret == "" {
		log.Fatalf("invalid oauth client: %v", token.ErrMissingOAuthClientConfig)
	}

	tokenContainer := token.NewTokenContainer(config.DB, calendarContainer.OAuthConfig, settings.RefreshMargin)
	eventContainer := calendarevent.NewCalendarEventContainer(config.DB)

	syncContainer := calendarsync.NewCalendarSyncContainer(
		eventContainer.Repo,
		tokenContainer.Manager,
		calendarContainer.CalendarService,
		settings,
	)

	return &Container{
		Settings:                settings,
		GoogleCalendarContainer: calendarContainer,
		TokenContainer:          tokenContainer,
		CalendarEventContainer:  eventContainer,
		CalendarSyncContainer:   syncContainer,
	}
}
