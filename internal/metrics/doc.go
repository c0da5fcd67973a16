// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
are exposed at /metrics by the API router.

# Available Metrics

Event bus:
  - events_appended_total, events_evicted_total (counters)
  - event_buffer_events (gauge), labels: tenant_id
  - event_buffers (gauge)
  - event_ingest_rejections_total (counter), labels: source, code
  - event_replay_requests_total (counter), labels: source

HTTP:
  - api_requests_total (counter), labels: method, endpoint, status_code
  - api_request_duration_seconds (histogram), labels: method, endpoint
  - api_active_requests (gauge)
  - api_rate_limit_hits_total (counter), labels: endpoint

WebSocket:
  - websocket_connections, websocket_room_connections{tenant_id} (gauges)
  - websocket_messages_sent_total{type}, websocket_messages_received_total{type}
  - websocket_errors_total{error_type}, websocket_auth_failures_total{code}
  - websocket_clients_dropped_total

Circuit breakers:
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

NATS mirror:
  - nats_mirror_published_total, nats_mirror_dropped_total{reason}
  - nats_mirror_queue_depth

# Usage

	metrics.RecordAPIRequest("GET", "/api/v1/events", "200", time.Since(start))
	metrics.RecordIngestRejection("websocket", "MESSAGE_EMPTY")

Tenant ids appear as label values on the buffer and room gauges. Deployments
with very large tenant counts should drop those series at scrape time.
*/
package metrics
