// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package logging is the single zerolog-backed logger used across the service.

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("tenant_id", tenantID).Int("connections", n).Msg("client joined")
	logging.Ctx(r.Context()).Warn().Str("code", code).Msg("event rejected")

Entries always end with .Msg() or .Send(); a chain without one is never
written.

# Fields

Common field names used throughout the service:

  - component: subsystem name (websocket-hub, gateway, authenticator, mirror)
  - tenant_id: owning tenant
  - user_id: authenticated user
  - request_id / correlation_id: request tracing, added by Ctx
  - code: machine-readable rejection code

Credentials (tokens) are never logged.

# slog bridge

NewSlogLogger returns a *slog.Logger writing to the same stream, used for the
suture event hook (sutureslog) and the watermill NATS publisher.
*/
package logging
