//go:build integration

package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestKafkaProducerWritesKeyedMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kafkaC, err := kafkaContainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		testcontainers.WithEnv(map[string]string{"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kafkaC.Terminate(context.Background()) })

	brokers, err := kafkaC.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "exercise_events"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	require.NoError(t, conn.Close())

	producer := NewKafkaProducer(brokers)
	t.Cleanup(func() { _ = producer.Close() })

	err = producer.WriteMessages(ctx, topic, kafka.Message{
		Key:   []byte("owner-1"),
		Value: []byte(`{"exercise_id":"ex-1"}`),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("exercise.logged")},
		},
	})
	require.NoError(t, err)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)
	require.Equal(t, "owner-1", string(msg.Key))
	require.JSONEq(t, `{"exercise_id":"ex-1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	require.Equal(t, "exercise.logged", string(msg.Headers[0].Value))
}
