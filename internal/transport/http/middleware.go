package httptransport

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bentonah/fitlog/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument logs every request and records its latency. Paths outside
// routes share the "unmatched" label to bound metric cardinality.
func Instrument(next http.Handler, routes ...string) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		known[route] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if _, ok := known[route]; !ok {
			route = "unmatched"
		}
		observability.ObserveRequest(r.Method, route, rec.status, elapsed)

		logrus.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("request served")
	})
}
