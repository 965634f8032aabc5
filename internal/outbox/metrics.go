package outbox

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for the event counters.
const (
	resultDelivered    = "delivered"
	resultDeadLettered = "dead_lettered"
	resultRequeued     = "requeued"
	resultQuarantined  = "quarantined"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox rows processed by the dispatcher, by event type and result.",
	}, []string{"event_type", "result"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitlog",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of one claim, publish and mark cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	replayCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "outbox_dlq",
		Name:      "entries_total",
		Help:      "Dead-letter entries handled by the replayer, by event type and result.",
	}, []string{"event_type", "result"})
)

func init() {
	prometheus.MustRegister(eventsCounter, batchDuration, replayCounter)
}

func countEvents(messages []Message, result string) {
	for _, msg := range messages {
		eventsCounter.WithLabelValues(msg.EventType, result).Inc()
	}
}
