package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToggleOperations counts membership/like toggles by kind and direction.
	ToggleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_toggle_operations_total",
		Help: "Total number of toggle operations by kind and direction",
	}, []string{"kind", "direction"})

	// ToggleFailures counts failed toggles by kind and error code.
	ToggleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_toggle_failures_total",
		Help: "Total number of failed toggle operations by kind and error code",
	}, []string{"kind", "code"})

	// StoreOperationLatency records document store latency by operation and collection.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academia_store_operation_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// CacheHits counts listing cache hits and misses.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_cache_requests_total",
		Help: "Total listing cache lookups by outcome (hit, miss, bypass)",
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EventsPublished counts reconciliation events by type and phase.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_events_published_total",
		Help: "Total reconciliation events published by type and phase",
	}, []string{"event_type", "phase"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "academia_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped on slow or closed
	// WebSocket clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academia_websocket_backpressure_drops_total",
		Help: "Total messages dropped due to WebSocket client backpressure",
	}, []string{"hub", "reason"})
)

// StoreMetrics records document store latency.
type StoreMetrics struct{}

// NewStoreMetrics returns a new StoreMetrics instance.
func NewStoreMetrics() *StoreMetrics {
	return &StoreMetrics{}
}

// TrackOperation returns a function that records operation latency when
// called (e.g. defer).
func (*StoreMetrics) TrackOperation(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// RecordToggle increments the toggle counter for the given kind/direction.
func RecordToggle(kind string, added bool) {
	direction := "remove"
	if added {
		direction = "add"
	}
	ToggleOperations.WithLabelValues(kind, direction).Inc()
}

// RecordToggleFailure increments the toggle failure counter.
func RecordToggleFailure(kind, code string) {
	ToggleFailures.WithLabelValues(kind, code).Inc()
}
