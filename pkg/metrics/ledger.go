package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records outcomes of ledger operations such as event
// creation, ticket purchases, refunds and payouts.
type LedgerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	escrow   prometheus.Gauge
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_op_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_op_success",
		Help: "Successful ledger operations.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_op_failure",
		Help: "Failed ledger operations.",
	}, []string{"op"})
	escrow := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "escrow_balance",
		Help: "Current escrow pool balance.",
	})
	reg.MustRegister(duration, success, failure, escrow)
	return &LedgerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		escrow:   escrow,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *LedgerMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *LedgerMetrics) IncSuccess(op string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (m *LedgerMetrics) IncFailure(op string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// SetEscrowBalance publishes the current escrow pool balance.
func (m *LedgerMetrics) SetEscrowBalance(balance int64) {
	if m == nil || m.escrow == nil {
		return
	}
	m.escrow.Set(float64(balance))
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
