package main

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bentonah/fitlog/internal/outbox"
)

var (
	replayBatchSize int
	replayWatch     bool
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and repair event delivery",
}

var outboxReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Requeue dead-lettered events into the outbox",
	Long: `Requeue entries from outbox_dlq so the dispatcher publishes them again.

Entries that have been retried DLQ_MAX_RETRIES times are quarantined instead.
With --watch the command keeps replaying every DLQ_POLL_INTERVAL until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay)
		if !replayWatch {
			requeued, err := manager.RunOnce(ctx, replayBatchSize)
			if err != nil {
				return err
			}
			color.Green("✓ requeued %d entries", requeued)
			return nil
		}

		return watchReplay(ctx, manager, cfg.DLQPollInterval)
	},
}

func watchReplay(ctx context.Context, manager *outbox.DLQManager, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{"interval": interval, "max_retries": cfg.DLQMaxRetries}).Info("dlq replay started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			requeued, err := manager.RunOnce(ctx, replayBatchSize)
			if err != nil {
				logrus.WithError(err).Error("dlq replay error")
			} else if requeued > 0 {
				logrus.WithField("requeued", requeued).Info("dlq entries requeued")
			}
		}
	}
}

func init() {
	outboxReplayCmd.Flags().IntVar(&replayBatchSize, "batch-size", 50, "entries processed per pass")
	outboxReplayCmd.Flags().BoolVar(&replayWatch, "watch", false, "keep replaying until interrupted")
	outboxCmd.AddCommand(outboxReplayCmd)
}
