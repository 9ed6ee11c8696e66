package middleware

import (
	"net/http"
	"time"

	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
)

// Metrics records per-route duration and outcome counters.
func Metrics(m *metrics.LedgerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			op := r.Method + " " + routePattern(r)
			m.ObserveDuration(op, time.Since(start))
			if rec.status >= http.StatusInternalServerError {
				m.IncFailure(op)
			} else {
				m.IncSuccess(op)
			}
		})
	}
}
