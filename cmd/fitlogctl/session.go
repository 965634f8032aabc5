package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/persistence/postgres"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage server-side sessions",
}

var sessionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions from Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		removed, err := postgres.NewRepository(pool).PurgeExpiredSessions(ctx, domain.SystemClock())
		if err != nil {
			return err
		}
		color.Green("✓ removed %d expired sessions", removed)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionPurgeCmd)
}
