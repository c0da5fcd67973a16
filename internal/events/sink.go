// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package events

// Sink receives every event appended to a Store, in append order per tenant.
//
// Publish is called while the tenant's buffer lock is held, so it must not
// block and must not call back into the Store. Implementations drop rather
// than wait.
type Sink interface {
	Publish(event Event)
}

// Sinks fans one event out to several sinks in order.
type Sinks []Sink

// Publish implements Sink.
func (s Sinks) Publish(event Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(event)
		}
	}
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(event Event) {
	f(event)
}

type discardSink struct{}

func (discardSink) Publish(Event) {}
