package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var flagEnvFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calsync",
		Short:         "Sync the system calendar with Google Calendar",
		SilenceErrors: true,
		SilenceUsage:  true,
		// A missing .env file is fine; the environment may already be set.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("env-file") {
				return godotenv.Load(flagEnvFile)
			}
			_ = godotenv.Load()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file to load before running")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newConnectCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
