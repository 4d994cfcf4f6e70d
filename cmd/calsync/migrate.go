package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Init()

			if err := config.Connect(cmd.Context(), os.Getenv("DATABASE_DSN")); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			return config.Migrate(cmd.Context(), config.DB)
		},
	}
}
