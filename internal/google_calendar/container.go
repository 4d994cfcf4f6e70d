package googlecalendar

import (
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleCalendarContainer struct {
	OAuthConfig     *oauth2.Config
	CalendarService CalendarService
}

func NewGoogleCalendarContainer(endpoint string) *GoogleCalendarContainer {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	return &GoogleCalendarContainer{
		OAuthConfig:     NewOAuthConfig(),
		CalendarService: NewCalendarService(opts...),
	}
}

// NewOAuthConfig reads the OAuth client from the environment.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}
