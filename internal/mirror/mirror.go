// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package mirror

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// ErrNATSNotEnabled is returned by NewNATSPublisher in builds without the
// nats tag.
var ErrNATSNotEnabled = errors.New("NATS support not compiled in: build with -tags nats")

// Drop reasons, used as a metrics label.
const (
	DropQueueFull    = "queue_full"
	DropPublishError = "publish_error"
	DropBreakerOpen  = "breaker_open"
)

// Publisher delivers one event to an external subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, event events.Event) error
	Close() error
}

// Options configures a Mirror.
type Options struct {
	// SubjectPrefix is prepended to the tenant id: "<prefix>.<tenant_id>".
	// Default: "eventfeed.events"
	SubjectPrefix string

	// QueueSize bounds events waiting to be published.
	// Default: 1024
	QueueSize int

	// BreakerFailureThreshold is the number of consecutive publish failures
	// that open the breaker. Default: 5
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the breaker stays open. Default: 30s
	BreakerTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.SubjectPrefix == "" {
		o.SubjectPrefix = "eventfeed.events"
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.BreakerFailureThreshold == 0 {
		o.BreakerFailureThreshold = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	return o
}

// Mirror copies appended events to a Publisher. It is an events.Sink:
// Publish only enqueues, and Run drains the queue. Events are dropped, never
// waited for, when the queue is full or the publisher is failing, so the
// feed itself is never slowed down by the mirror.
type Mirror struct {
	publisher Publisher
	prefix    string
	queue     chan events.Event
	breaker   *gobreaker.CircuitBreaker[any]
}

var _ events.Sink = (*Mirror)(nil)

// New creates a Mirror around publisher.
func New(publisher Publisher, opts Options) *Mirror {
	opts = opts.withDefaults()
	return &Mirror{
		publisher: publisher,
		prefix:    opts.SubjectPrefix,
		queue:     make(chan events.Event, opts.QueueSize),
		breaker:   newBreaker("nats-mirror", opts.BreakerFailureThreshold, opts.BreakerTimeout),
	}
}

func newBreaker(name string, threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerClosed)
	return gobreaker.NewCircuitBreaker[any](settings)
}

// Subject returns the subject events of tenantID are published to.
func (m *Mirror) Subject(tenantID string) string {
	return m.prefix + "." + tenantID
}

// Publish implements events.Sink.
func (m *Mirror) Publish(event events.Event) {
	select {
	case m.queue <- event:
		metrics.MirrorQueueDepth.Set(float64(len(m.queue)))
	default:
		metrics.RecordMirrorDrop(DropQueueFull)
		logging.Debug().
			Str("tenant_id", event.TenantID).
			Str("event_id", event.ID).
			Msg("Mirror queue full, event dropped")
	}
}

// QueueDepth returns the number of events waiting to be published.
func (m *Mirror) QueueDepth() int {
	return len(m.queue)
}

// BreakerState returns the publish breaker state name.
func (m *Mirror) BreakerState() string {
	return m.breaker.State().String()
}

// Run publishes queued events until ctx is canceled.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-m.queue:
			metrics.MirrorQueueDepth.Set(float64(len(m.queue)))
			m.forward(ctx, event)
		}
	}
}

// Close publishes what is still queued until ctx expires, then closes the
// publisher. Run must have returned.
func (m *Mirror) Close(ctx context.Context) error {
	flushed := 0
drain:
	for {
		select {
		case <-ctx.Done():
			break drain
		case event := <-m.queue:
			m.forward(ctx, event)
			flushed++
		default:
			break drain
		}
	}

	remaining := len(m.queue)
	metrics.MirrorQueueDepth.Set(float64(remaining))
	logging.Info().
		Int("flushed", flushed).
		Int("remaining", remaining).
		Msg("Event mirror stopped")
	return m.publisher.Close()
}

func (m *Mirror) forward(ctx context.Context, event events.Event) {
	subject := m.Subject(event.TenantID)
	_, err := m.breaker.Execute(func() (any, error) {
		return nil, m.publisher.Publish(ctx, subject, event)
	})

	switch {
	case err == nil:
		metrics.RecordMirrorPublish()
		metrics.RecordBreakerRequest(m.breaker.Name(), "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordMirrorDrop(DropBreakerOpen)
		metrics.RecordBreakerRequest(m.breaker.Name(), "rejected")
	default:
		metrics.RecordMirrorDrop(DropPublishError)
		metrics.RecordBreakerRequest(m.breaker.Name(), "failure")
		logging.Warn().Err(err).
			Str("subject", subject).
			Str("event_id", event.ID).
			Msg("Failed to mirror event")
	}
}
