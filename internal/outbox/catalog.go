package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bentonah/fitlog/internal/events"
)

// Event is a domain event staged in the outbox alongside the record it describes.
type Event struct {
	OwnerID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       interface{}
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeExerciseLogged:          {Topic: "exercise_events"},
	events.TypeHealthMeasurementLogged: {Topic: "health_measurement_events"},
}

// TopicFor returns the Kafka topic an event type is published to.
func TopicFor(eventType string) (string, bool) {
	meta, ok := eventCatalog[eventType]
	return meta.Topic, ok
}

// Insert stages evt inside tx so it commits or rolls back with the record.
func Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	topic, ok := TopicFor(evt.EventType)
	if !ok {
		return fmt.Errorf("unknown event type: %s", evt.EventType)
	}

	body, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.EventType, err)
	}

	const stmt = `INSERT INTO outbox (owner_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		evt.OwnerID,
		evt.AggregateType,
		evt.AggregateID,
		evt.EventType,
		topic,
		evt.OwnerID,
		body,
		fmt.Sprintf("%s:%s", evt.AggregateID, evt.EventType),
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
