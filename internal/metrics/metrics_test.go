// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordEventAppended tests append and eviction counters
func TestRecordEventAppended(t *testing.T) {
	appended := testutil.ToFloat64(EventsAppended)
	evicted := testutil.ToFloat64(EventsEvicted)

	RecordEventAppended(false)
	RecordEventAppended(true)

	if got := testutil.ToFloat64(EventsAppended) - appended; got != 2 {
		t.Errorf("Expected 2 appends recorded, got %v", got)
	}
	if got := testutil.ToFloat64(EventsEvicted) - evicted; got != 1 {
		t.Errorf("Expected 1 eviction recorded, got %v", got)
	}
}

// TestSetBufferSize tests the per-tenant buffer gauge
func TestSetBufferSize(t *testing.T) {
	SetBufferSize("company_a", 3)
	SetBufferSize("company_b", 7)

	if got := testutil.ToFloat64(EventBufferSize.WithLabelValues("company_a")); got != 3 {
		t.Errorf("Expected company_a gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(EventBufferSize.WithLabelValues("company_b")); got != 7 {
		t.Errorf("Expected company_b gauge 7, got %v", got)
	}
}

// TestRecordIngestRejection tests rejection counters by source and code
func TestRecordIngestRejection(t *testing.T) {
	tests := []struct {
		source string
		code   string
	}{
		{"http", "MESSAGE_REQUIRED"},
		{"http", "MESSAGE_EMPTY"},
		{"websocket", "MESSAGE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.source+"_"+tt.code, func(t *testing.T) {
			c := IngestRejections.WithLabelValues(tt.source, tt.code)
			before := testutil.ToFloat64(c)
			RecordIngestRejection(tt.source, tt.code)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("Expected counter to increase by 1, got %v", got)
			}
		})
	}
}

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{"created event", "POST", "/api/v1/events", "201", 3 * time.Millisecond},
		{"list events", "GET", "/api/v1/events", "200", time.Millisecond},
		{"missing tenant", "GET", "/api/v1/events", "400", 100 * time.Microsecond},
		{"rate limited", "POST", "/api/v1/events", "429", 50 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode)
			before := testutil.ToFloat64(c)
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("Expected request counter to increase by 1, got %v", got)
			}
		})
	}
}

// TestTrackActiveRequest tests active request gauge
func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 2 {
		t.Errorf("Expected 2 active requests, got %v", got)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("Expected gauge back at %v, got %v", before, got)
	}
}

// TestRecordBreakerTransition tests breaker state gauge and transition counter
func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("auth", "closed", "open", BreakerOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("auth")); got != BreakerOpen {
		t.Errorf("Expected state %d, got %v", BreakerOpen, got)
	}

	RecordBreakerTransition("auth", "open", "half-open", BreakerHalfOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("auth")); got != BreakerHalfOpen {
		t.Errorf("Expected state %d, got %v", BreakerHalfOpen, got)
	}

	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("auth", "closed", "open")); got < 1 {
		t.Errorf("Expected closed->open transition recorded, got %v", got)
	}
}

// TestWebSocketMetrics tests websocket counters
func TestWebSocketMetrics(t *testing.T) {
	sent := WSMessagesSent.WithLabelValues("event_created")
	before := testutil.ToFloat64(sent)
	RecordWSMessageSent("event_created")
	if got := testutil.ToFloat64(sent) - before; got != 1 {
		t.Errorf("Expected sent counter +1, got %v", got)
	}

	auth := WSAuthFailures.WithLabelValues("INVALID_TOKEN")
	before = testutil.ToFloat64(auth)
	RecordWSAuthFailure("INVALID_TOKEN")
	if got := testutil.ToFloat64(auth) - before; got != 1 {
		t.Errorf("Expected auth failure counter +1, got %v", got)
	}

	RecordWSMessageReceived("replay")
	RecordWSError("read")
}

// TestMirrorMetrics tests NATS mirror counters
func TestMirrorMetrics(t *testing.T) {
	before := testutil.ToFloat64(MirrorPublished)
	RecordMirrorPublish()
	if got := testutil.ToFloat64(MirrorPublished) - before; got != 1 {
		t.Errorf("Expected publish counter +1, got %v", got)
	}

	drop := MirrorDropped.WithLabelValues("queue_full")
	before = testutil.ToFloat64(drop)
	RecordMirrorDrop("queue_full")
	if got := testutil.ToFloat64(drop) - before; got != 1 {
		t.Errorf("Expected drop counter +1, got %v", got)
	}
}

// TestConcurrentMetricRecording tests that recording is safe under concurrency
func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(EventsAppended)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordEventAppended(false)
			RecordAPIRequest("GET", "/api/v1/events", "200", time.Millisecond)
			RecordWSMessageSent("snapshot")
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(EventsAppended) - before; got != 50 {
		t.Errorf("Expected 50 appends recorded, got %v", got)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	SetAppInfo("test", "go1.24")
	RecordReplay("websocket")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
