// Package outbox persists and delivers domain events to Kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Dispatcher drains the outbox and delivers events to Kafka.
type Dispatcher struct {
	store            Store
	producer         messageWriter
	pollInterval     time.Duration
	batchSize        int
	now              func() time.Time
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store Store, producer messageWriter, pollInterval time.Duration, batchSize int) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 25
	}
	return &Dispatcher{
		store:            store,
		producer:         producer,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		now:              func() time.Time { return time.Now().UTC() },
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("outbox dispatcher error")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

// RunOnce claims and delivers a single batch. A failed delivery moves the
// whole batch to the DLQ and still marks it published.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	start := time.Now()

	messages, err := d.store.Claim(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.deliver(ctx, messages); err != nil {
		logrus.WithError(err).WithField("count", len(messages)).Warn("outbox delivery failed, routing to dlq")
		if dlqErr := d.store.MoveToDLQ(ctx, messages, err.Error()); dlqErr != nil {
			return dlqErr
		}
		countEvents(messages, resultDeadLettered)
		return d.store.MarkPublished(ctx, messages)
	}

	countEvents(messages, resultDelivered)
	return d.store.MarkPublished(ctx, messages)
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)
	order := make([]string, 0)

	for _, msg := range messages {
		if _, ok := TopicFor(msg.EventType); !ok {
			return fmt.Errorf("no routing metadata for event_type=%s", msg.EventType)
		}

		record := kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: []byte(msg.Payload),
			Time:  d.now(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(msg.EventType)},
				{Key: "owner_id", Value: []byte(msg.OwnerID)},
			},
		}
		if _, seen := batches[msg.Topic]; !seen {
			order = append(order, msg.Topic)
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for _, topic := range order {
		if err := d.producer.WriteMessages(ctx, topic, batches[topic]...); err != nil {
			return err
		}
	}
	return nil
}
