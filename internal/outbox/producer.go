package outbox

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrProducerClosed is returned by WriteMessages after Close.
var ErrProducerClosed = errors.New("outbox: producer closed")

// KafkaProducer publishes outbox rows, one kafka.Writer per topic created on
// first use.
type KafkaProducer struct {
	addr         net.Addr
	batchTimeout time.Duration

	mu     sync.Mutex
	closed bool
	byName map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer for the given seed brokers.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		addr:         kafka.TCP(brokers...),
		batchTimeout: 50 * time.Millisecond,
		byName:       make(map[string]*kafka.Writer),
	}
}

// WriteMessages publishes msgs to topic.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	w, err := p.writer(topic)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) (*kafka.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrProducerClosed
	}
	if w, ok := p.byName[topic]; ok {
		return w, nil
	}

	// Messages are keyed by owner id; Hash keeps one owner on one partition.
	w := &kafka.Writer{
		Addr:                   p.addr,
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           p.batchTimeout,
		AllowAutoTopicCreation: true,
	}
	p.byName[topic] = w
	return w, nil
}

// Close flushes and releases every writer. Later writes fail with
// ErrProducerClosed.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var errs error
	for topic, w := range p.byName {
		errs = errors.Join(errs, w.Close())
		delete(p.byName, topic)
	}
	return errs
}
