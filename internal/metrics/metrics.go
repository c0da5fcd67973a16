// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event Bus Metrics
	EventsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_appended_total",
			Help: "Total number of events appended to tenant ring buffers",
		},
	)

	EventsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_evicted_total",
			Help: "Total number of events evicted from full ring buffers",
		},
	)

	EventBufferSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "event_buffer_events",
			Help: "Current number of buffered events per tenant",
		},
		[]string{"tenant_id"},
	)

	EventBuffers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_buffers",
			Help: "Number of tenant ring buffers currently allocated",
		},
	)

	IngestRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_ingest_rejections_total",
			Help: "Total number of rejected event payloads",
		},
		[]string{"source", "code"}, // source: "http", "websocket"
	)

	ReplayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_replay_requests_total",
			Help: "Total number of replay requests served",
		},
		[]string{"source"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of joined WebSocket connections",
		},
	)

	WSRoomConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_room_connections",
			Help: "Current number of joined connections per tenant room",
		},
		[]string{"tenant_id"},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames queued for clients",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket frames received from clients",
		},
		[]string{"type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	WSAuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_auth_failures_total",
			Help: "Total number of rejected WebSocket connection attempts",
		},
		[]string{"code"},
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of clients disconnected because their send queue was full",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Mirror Metrics
	MirrorPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_mirror_published_total",
			Help: "Total number of events mirrored to NATS",
		},
	)

	MirrorDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_mirror_dropped_total",
			Help: "Total number of events not mirrored to NATS",
		},
		[]string{"reason"}, // reason: "queue_full", "publish_error", "breaker_open"
	)

	MirrorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_mirror_queue_depth",
			Help: "Current number of events waiting to be mirrored",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordEventAppended records one append and, if it displaced an older
// event, one eviction.
func RecordEventAppended(evicted bool) {
	EventsAppended.Inc()
	if evicted {
		EventsEvicted.Inc()
	}
}

// SetBufferSize publishes the current size of a tenant's ring buffer.
func SetBufferSize(tenantID string, size int) {
	EventBufferSize.WithLabelValues(tenantID).Set(float64(size))
}

// RecordIngestRejection records a payload rejected by validation.
func RecordIngestRejection(source, code string) {
	IngestRejections.WithLabelValues(source, code).Inc()
}

// RecordReplay records a served replay request.
func RecordReplay(source string) {
	ReplayRequests.WithLabelValues(source).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWSMessageSent records a frame queued for a client.
func RecordWSMessageSent(msgType string) {
	WSMessagesSent.WithLabelValues(msgType).Inc()
}

// RecordWSMessageReceived records a frame read from a client.
func RecordWSMessageReceived(msgType string) {
	WSMessagesReceived.WithLabelValues(msgType).Inc()
}

// RecordWSError records a transport or protocol error.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// RecordWSAuthFailure records a rejected connection attempt by reason code.
func RecordWSAuthFailure(code string) {
	WSAuthFailures.WithLabelValues(code).Inc()
}

// Breaker state values match gobreaker's State ordering.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// RecordBreakerTransition records a state change for the named breaker and
// updates its current-state gauge.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRequest records the outcome of a call made through a breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordMirrorPublish records a successful NATS mirror publish.
func RecordMirrorPublish() {
	MirrorPublished.Inc()
}

// RecordMirrorDrop records an event the mirror gave up on.
func RecordMirrorDrop(reason string) {
	MirrorDropped.WithLabelValues(reason).Inc()
}

// SetAppInfo publishes build information.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
