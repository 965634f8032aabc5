package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record kinds used as metric labels.
const (
	KindExercise          = "exercise"
	KindHealthMeasurement = "health_measurement"
)

var (
	recordsCreatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "records",
		Name:      "created_total",
		Help:      "Number of records persisted, labeled by kind.",
	}, []string{"kind"})

	validationFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "records",
		Name:      "validation_failures_total",
		Help:      "Number of submissions rejected by validation, labeled by kind.",
	}, []string{"kind"})

	recordPersistGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitlog",
		Subsystem: "records",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record persisted, labeled by kind.",
	}, []string{"kind"})

	loginCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts labeled by outcome (success, failure).",
	}, []string{"outcome"})

	sessionsStartedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "auth",
		Name:      "sessions_started_total",
		Help:      "Number of sessions started.",
	})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitlog",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency labeled by method, route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		recordsCreatedCounter,
		validationFailureCounter,
		recordPersistGauge,
		loginCounter,
		sessionsStartedCounter,
		requestDuration,
	)
}

// RecordPersisted bumps the created counter and the persistence watermark for kind.
func RecordPersisted(kind string, ts time.Time) {
	recordsCreatedCounter.WithLabelValues(kind).Inc()
	if ts.IsZero() {
		return
	}
	recordPersistGauge.WithLabelValues(kind).Set(float64(ts.Unix()))
}

// RecordValidationFailure counts a rejected submission.
func RecordValidationFailure(kind string) {
	validationFailureCounter.WithLabelValues(kind).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loginCounter.WithLabelValues(outcome).Inc()
}

// RecordSessionStarted counts a newly started session.
func RecordSessionStarted() {
	sessionsStartedCounter.Inc()
}

// ObserveRequest records the latency of a served request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, route, statusLabel(status)).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
