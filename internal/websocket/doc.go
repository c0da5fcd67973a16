// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package websocket delivers tenant event feeds to connected clients.

Each admitted connection joins exactly one room, the room of the tenant it
authenticated against. Every event appended for that tenant is pushed to
every client in the room, in append order. Nothing crosses rooms.

Key Components:

  - Gateway: upgrades GET /ws/events, authenticates, joins, and serves
    replay and post_event requests
  - Hub: per-tenant rooms; implements events.Sink so the Store pushes
    appends straight into the rooms
  - Client: one connection with a bounded send queue and read/write pumps

Connection Lifecycle:

	upgrade --> credentials --> Authenticate --+--> connect_error + close 1008
	                                           |
	                                           +--> join room + snapshot --> requests
	                                                                     --> event_created pushes

Credentials come from the X-Tenant-ID and X-User-Token upgrade headers. A
client that cannot set headers (a browser) sends a first frame instead:

	{"type":"auth","data":{"tenantId":"company_a","token":"..."}}

Frames:

	{"type": string, "id"?: string, "data"?: any}

	snapshot           server  data: [Event...], newest 10, oldest first
	event_created      server  data: Event
	replay             client  data: {"sinceId"?: string, "limit"?: int}
	replay_result      server  data: {"events": [Event...]}
	post_event         client  data: {"message": string}
	post_event_result  server  data: {"event": Event}
	error              server  data: {"code", "message"}
	ping / pong        either

Responses echo the request id.

Backpressure:

Sends never block an append. A client whose send queue is full is closed
and removed from its room; the other clients are unaffected.

Usage Example:

	hub := websocket.NewHub()
	store := events.NewStore(cfg.Events.BufferSize, events.WithSink(hub))
	ingestor := events.NewIngestor(store, events.NewValidator(cfg.Events.MessageMaxLength))
	gw := websocket.NewGateway(hub, ingestor, authenticator, websocket.SettingsFromConfig(cfg))

	r.Get("/ws/events", gw.ServeHTTP)
	go hub.RunWithContext(ctx)
*/
package websocket
