package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/auth"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/container"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
)

// channelTokenGrace keeps the channel token valid a little past the
// channel's own expiration.
const channelTokenGrace = time.Hour

type watchOutput struct {
	ChannelID  string    `json:"channelId"`
	ResourceID string    `json:"resourceId"`
	Address    string    `json:"address"`
	Expiration time.Time `json:"expiration,omitempty"`
}

func newWatchCmd() *cobra.Command {
	var (
		userID  string
		address string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Register a Google push channel that triggers pulls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := container.New()
			ctx := cmd.Context()

			rec, err := c.TokenContainer.Manager.EnsureValidToken(ctx, userID)
			if err != nil {
				return fmt.Errorf("authorize: %w", err)
			}

			channelToken, err := auth.GenerateJWT(userID, auth.RoleWebhook, ttl+channelTokenGrace)
			if err != nil {
				return fmt.Errorf("sign channel token: %w", err)
			}

			ch, err := c.GoogleCalendarContainer.CalendarService.Watch(ctx, rec.AccessToken, googlecalendar.WatchChannel{
				ID:         uuid.NewString(),
				Address:    address,
				Token:      channelToken,
				Expiration: time.Now().Add(ttl),
			})
			if err != nil {
				if detail := googlecalendar.ErrorDetail(err); detail != "" {
					return fmt.Errorf("register channel: %s", detail)
				}
				return fmt.Errorf("register channel: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), watchOutput{
				ChannelID:  ch.ID,
				ResourceID: ch.ResourceID,
				Address:    ch.Address,
				Expiration: ch.Expiration,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id whose calendar to watch")
	cmd.Flags().StringVar(&address, "address", "", "public HTTPS URL of /calendar-sync/webhook")
	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "requested channel lifetime")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}
