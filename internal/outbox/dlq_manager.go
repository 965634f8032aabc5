package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DLQManager replays dead-lettered events into the outbox and quarantines
// entries that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager with the provided pool and retry configuration.
func NewDLQManager(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQManager{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay}
}

// RunOnce processes a batch of due DLQ entries and returns how many were requeued.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	const query = `SELECT dlq_id, owner_id, event_id, event_type, topic, payload, aggregate_type, aggregate_id, partition_key, retry_count
        FROM outbox_dlq
        WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1`

	rows, err := m.pool.Query(ctx, query, batchSize)
	if err != nil {
		return 0, err
	}
	entries, err := pgx.CollectRows(rows, scanDLQEntry)
	if err != nil {
		return 0, err
	}

	requeued := 0
	var errs error
	for _, entry := range entries {
		ok, procErr := m.handleEntry(ctx, entry)
		if procErr != nil {
			errs = errors.Join(errs, procErr)
			continue
		}
		if ok {
			requeued++
		}
	}
	return requeued, errs
}

// handleEntry requeues a single entry, or quarantines it once retries are exhausted.
func (m *DLQManager) handleEntry(ctx context.Context, entry dlqEntry) (bool, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	logCtx := logrus.WithFields(logrus.Fields{"dlq_id": entry.ID, "event_type": entry.EventType, "retry_count": entry.RetryCount})

	if entry.RetryCount >= m.maxRetries {
		if _, err := tx.Exec(ctx, `UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`, "retry limit reached", entry.ID); err != nil {
			return false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return false, err
		}
		replayCounter.WithLabelValues(entry.EventType, resultQuarantined).Inc()
		logCtx.Warn("dlq entry quarantined")
		return false, nil
	}

	const requeue = `INSERT INTO outbox (owner_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return false, err
	}
	if _, insertErr := savepoint.Exec(ctx, requeue, entry.OwnerID, entry.AggregateType, entry.AggregateID, entry.EventType, entry.Topic, entry.PartitionKey, entry.Payload); insertErr != nil {
		if err := savepoint.Rollback(ctx); err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE outbox_dlq
                SET retry_count = retry_count + 1,
                    last_attempt_at = NOW(),
                    next_retry_at = NOW() + make_interval(secs => $1),
                    reason = $2
              WHERE dlq_id = $3`,
			m.backoffDelay(entry.RetryCount+1).Seconds(), insertErr.Error(), entry.ID,
		); err != nil {
			return false, err
		}
		logCtx.WithError(insertErr).Warn("dlq requeue failed, retry scheduled")
		return false, tx.Commit(ctx)
	}
	if err := savepoint.Commit(ctx); err != nil {
		return false, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	replayCounter.WithLabelValues(entry.EventType, resultRequeued).Inc()
	logCtx.Info("dlq entry requeued")
	return true, nil
}

// backoffDelay calculates exponential backoff capped at one hour.
func (m *DLQManager) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * m.baseDelay
	if delay > time.Hour || delay <= 0 {
		delay = time.Hour
	}
	return delay
}

// dlqEntry represents an outbox_dlq row selected for processing.
type dlqEntry struct {
	ID            int64
	OwnerID       string
	EventID       int64
	EventType     string
	Topic         string
	Payload       []byte
	AggregateType string
	AggregateID   string
	PartitionKey  string
	RetryCount    int
}

func scanDLQEntry(row pgx.CollectableRow) (dlqEntry, error) {
	var entry dlqEntry
	err := row.Scan(&entry.ID, &entry.OwnerID, &entry.EventID, &entry.EventType, &entry.Topic, &entry.Payload, &entry.AggregateType, &entry.AggregateID, &entry.PartitionKey, &entry.RetryCount)
	return entry, err
}
