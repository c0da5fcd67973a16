// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package main is the entry point for the Eventfeed server.

Eventfeed keeps a bounded, in-memory feed of short text events per tenant and
delivers them to authenticated clients over HTTP (post, paged replay) and
WebSocket (snapshot on join, live push, replay, post).

# Application Architecture

The server runs under a Suture v4 process supervision tree:

	RootSupervisor ("eventfeed")
	├── DataSupervisor ("data-layer")
	│   └── BadgerDB value log GC
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub
	│   └── NATS event mirror (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    ├── HTTP Server
	    └── Uptime gauge

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Storage: BadgerDB holding the tenant directory and user tokens
 4. Seeding: demo tenants and users from SEED_FILE and SEED_TENANTS
 5. Event pipeline: per-tenant ring buffers fanned out to the hub and mirror
 6. Authentication: tenant and token lookup behind a circuit breaker
 7. HTTP Server: Chi router with CORS, rate limiting and the WebSocket gateway
 8. Supervisor Tree: Suture v4 process supervision

# Build Tags

	go build ./cmd/server               # Default build
	go build -tags nats ./cmd/server    # Enable the NATS JetStream mirror

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests for HTTP_SHUTDOWN_TIMEOUT, the hub closes every WebSocket with a
going-away frame, the mirror flushes its queue and storage is closed last.

# Example Usage

Development with seeded demo users:

	export STORAGE_IN_MEMORY=true
	export SEED_FILE=./seed.json
	export LOG_FORMAT=console
	./eventfeed

Production with a persistent store and the NATS mirror:

	export STORAGE_PATH=/data/eventfeed
	export CORS_ORIGINS=https://app.example.com
	export NATS_ENABLED=true
	export NATS_URL=nats://nats:4222
	./eventfeed
*/
package main
