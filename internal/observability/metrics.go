// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the solver.
type Metrics struct {
	// Intake metrics
	IntentsReceived prometheus.Counter
	IntentsAccepted prometheus.Counter
	IntentsRejected *prometheus.CounterVec

	// Lifecycle metrics
	IntentsSettled prometheus.Counter
	IntentsDropped *prometheus.CounterVec
	IntentsExpired prometheus.Counter
	PendingIntents prometheus.Gauge

	// Latency metrics
	SweepDuration     prometheus.Histogram
	OrderBookLatency  prometheus.Histogram
	ProofLatency      prometheus.Histogram
	SettlementLatency prometheus.Histogram

	// Connection metrics
	WSConnections     prometheus.Gauge
	BroadcastsSent    prometheus.Counter
	BroadcastsDropped prometheus.Counter

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intent_solver"
	}

	return &Metrics{
		IntentsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "intents_received_total",
			Help:      "Total number of encrypted intents received",
		}),
		IntentsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "intents_accepted_total",
			Help:      "Total number of intents decrypted and enqueued",
		}),
		IntentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "intents_rejected_total",
			Help:      "Total number of intents rejected at intake by reason",
		}, []string{"reason"}),

		IntentsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "intents_settled_total",
			Help:      "Total number of intents settled on-chain",
		}),
		IntentsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "intents_dropped_total",
			Help:      "Total number of intents dropped by failure stage",
		}, []string{"stage"}),
		IntentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "intents_expired_total",
			Help:      "Total number of intents expired past deadline",
		}),
		PendingIntents: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "pending_intents",
			Help:      "Current number of intents awaiting a match",
		}),

		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of one full pending-set sweep",
			Buckets:   prometheus.DefBuckets,
		}),
		OrderBookLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "orderbook_fetch_seconds",
			Help:      "Order book fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
		ProofLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "proof_generation_seconds",
			Help:      "Proof generation round-trip latency",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SettlementLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "settlement_seconds",
			Help:      "Settlement submission latency",
			Buckets:   prometheus.DefBuckets,
		}),

		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "ws_connections",
			Help:      "Current number of WebSocket connections",
		}),
		BroadcastsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_sent_total",
			Help:      "Total settlement events delivered to subscribers",
		}),
		BroadcastsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "events_dropped_total",
			Help:      "Total settlement events dropped due to slow subscribers",
		}),

		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total storage errors by database and operation",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIntentReceived increments the intents received counter.
func RecordIntentReceived() {
	DefaultMetrics.IntentsReceived.Inc()
}

// RecordIntentAccepted increments the intents accepted counter.
func RecordIntentAccepted() {
	DefaultMetrics.IntentsAccepted.Inc()
}

// RecordIntentRejected records an intake rejection.
func RecordIntentRejected(reason string) {
	DefaultMetrics.IntentsRejected.WithLabelValues(reason).Inc()
}

// RecordIntentSettled increments the settled counter.
func RecordIntentSettled() {
	DefaultMetrics.IntentsSettled.Inc()
}

// RecordIntentDropped records a terminal processing failure.
func RecordIntentDropped(stage string) {
	DefaultMetrics.IntentsDropped.WithLabelValues(stage).Inc()
}

// RecordIntentExpired increments the expired counter.
func RecordIntentExpired() {
	DefaultMetrics.IntentsExpired.Inc()
}

// UpdatePendingIntents updates the pending set size gauge.
func UpdatePendingIntents(n int) {
	DefaultMetrics.PendingIntents.Set(float64(n))
}

// RecordSweepDuration records one sweep pass.
func RecordSweepDuration(seconds float64) {
	DefaultMetrics.SweepDuration.Observe(seconds)
}

// RecordDBError records a storage error.
func RecordDBError(database, operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
}
