package main

import (
	"errors"

	"github.com/spf13/cobra"

	calendarsync "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_sync"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/container"
)

var errSyncFailed = errors.New("sync pass failed")

func newSyncCmd() *cobra.Command {
	var (
		userID  string
		action  string
		timeMin string
		timeMax string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass for a user and print the result",
		Long: `Run a single reconciliation pass and print the same JSON body the
HTTP trigger returns. The action accepts the same aliases: push, sync,
system_to_google, pull, google_to_system. Anything else runs two-way.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := container.New()

			resp := calendarsync.Execute(cmd.Context(), c.CalendarSyncContainer.Service, calendarsync.NormalizeAction(action), calendarsync.SyncRequest{
				UserID:  userID,
				TimeMin: timeMin,
				TimeMax: timeMax,
			})
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Error != "" {
				return errSyncFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to sync")
	cmd.Flags().StringVar(&action, "action", "two_way", "sync direction")
	cmd.Flags().StringVar(&timeMin, "time-min", "", "window start (RFC 3339)")
	cmd.Flags().StringVar(&timeMax, "time-max", "", "window end (RFC 3339)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
