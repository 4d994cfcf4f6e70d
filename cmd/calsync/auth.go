package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/container"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
)

func newAuthURLCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the Google consent URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := googlecalendar.NewOAuthConfig()
			if cfg.ClientID == "" || cfg.ClientSecret == "" {
				return token.ErrMissingOAuthClientConfig
			}
			if state == "" {
				state = uuid.NewString()
			}

			// Forced consent makes Google hand out a refresh token every time.
			url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "opaque state echoed back on the redirect")
	return cmd
}

func newConnectCmd() *cobra.Command {
	var userID, code string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Exchange an authorization code and store the user's tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := container.New()
			ctx := cmd.Context()

			tok, err := c.GoogleCalendarContainer.OAuthConfig.Exchange(ctx, code)
			if err != nil {
				return fmt.Errorf("exchange authorization code: %w", err)
			}
			if tok.RefreshToken == "" {
				return errors.New("google returned no refresh token, revoke access and retry")
			}

			refresh := tok.RefreshToken
			record := &token.TokenRecord{
				UserID:       userID,
				AccessToken:  tok.AccessToken,
				RefreshToken: &refresh,
			}
			if !tok.Expiry.IsZero() {
				expiry := tok.Expiry.UTC()
				record.ExpiresAt = &expiry
			}

			if err := c.TokenContainer.Repo.Save(ctx, record); err != nil {
				return fmt.Errorf("save tokens: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected Google Calendar for user %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id owning the calendar")
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the consent redirect")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}
