// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package mirror copies every appended event to NATS JetStream, best effort.

The Mirror is registered as an events.Sink next to the WebSocket hub. Its
Publish never blocks: events go into a bounded queue and a supervised
service drains the queue through a sony/gobreaker circuit breaker. A full
queue or an open breaker drops the event and counts it in
nats_mirror_dropped_total. Subscribers of the feed are unaffected either way.

Events of tenant "company_a" are published to "<prefix>.company_a" with the
event JSON as payload and the event id as Nats-Msg-Id.

Build Tags:

The NATS publisher (Watermill with watermill-nats/v2) is only compiled with
-tags nats. Without the tag, NewNATSPublisher returns ErrNATSNotEnabled and
the server runs without a mirror.

Usage Example:

	pub, err := mirror.NewNATSPublisher(cfg.NATS)
	if err != nil {
	    return err
	}
	m := mirror.New(pub, mirror.Options{SubjectPrefix: cfg.NATS.SubjectPrefix})
	store := events.NewStore(cfg.Events.BufferSize, events.WithSink(events.Sinks{hub, m}))
	tree.AddMessagingService(services.NewMirrorService(m, 5*time.Second))
*/
package mirror
