// Command fitlogctl performs administrative tasks against a fitlog database.
package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/bentonah/fitlog/internal/config"
	"github.com/bentonah/fitlog/internal/observability"
)

var (
	cfg         config.Config
	postgresURL string
)

var rootCmd = &cobra.Command{
	Use:   "fitlogctl",
	Short: "Administer a fitlog deployment",
	Long: `fitlogctl manages the fitlog Postgres database.

  $ fitlogctl migrate                          # Apply pending schema migrations
  $ fitlogctl user create --username alice     # Create an account (password on stdin)
  $ fitlogctl session purge                    # Delete expired sessions
  $ fitlogctl outbox replay                    # Requeue dead-lettered events

Configuration is read from the environment (and a .env file) the same way the
server reads it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		observability.SetupLogging(cfg.LogLevel, cfg.LogFormat)
		if postgresURL == "" {
			postgresURL = cfg.PostgresURL
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&postgresURL, "postgres-url", "", "Postgres connection string (defaults to POSTGRES_URL)")
	rootCmd.AddCommand(migrateCmd, userCmd, sessionCmd, outboxCmd)
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, postgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
