// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package api provides the HTTP surface of the event feed using the chi router.

Routes:

	GET    /api/v1/health/live    liveness probe
	GET    /api/v1/health/ready   readiness probe (storage, auth breaker)
	GET    /api/v1/events         events after ?sinceId, at most ?limit
	POST   /api/v1/events         append {"message": "..."} to the tenant feed
	GET    /api/v1/events/stats   buffer occupancy and live subscribers
	DELETE /api/v1/events         clear the tenant feed (admin only)
	GET    /metrics               Prometheus exposition
	GET    /ws/events             WebSocket upgrade

Every /api/v1/events route requires the X-Tenant-ID and X-User-Token
headers. The tenant always comes from the headers; request bodies cannot
name another tenant.

Response Envelope:

All JSON responses share one shape:

	{
	  "success": true,
	  "data": {...},
	  "error": {"code": "MESSAGE_EMPTY", "message": "...", "request_id": "..."},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 0}
	}

Status Codes:

	201  event created
	400  INVALID_BODY, INVALID_LIMIT, TENANT_ID_MISSING
	401  USER_TOKEN_MISSING, INVALID_TOKEN
	403  FORBIDDEN
	404  TENANT_INVALID
	413  MESSAGE_TOO_LARGE
	422  MESSAGE_REQUIRED, MESSAGE_EMPTY
	429  TOO_MANY_REQUESTS
	500  INTERNAL_ERROR

Middleware Stack:

Global: request id with logging context, RealIP, Recoverer and go-chi/cors.
Route groups add go-chi/httprate per-IP limits, security headers and
Prometheus request metrics.

Usage Example:

	handler := api.NewHandler(ingestor, hub, api.SettingsFromConfig(cfg),
	    api.StorageCheck(db),
	    api.BreakerCheck("auth-lookup", authenticator.BreakerState),
	)
	router := api.NewRouter(handler, auth.NewMiddleware(authenticator, api.WriteError),
	    gateway, api.ChiMiddlewareConfigFromConfig(cfg))
	srv := &http.Server{Addr: ":3000", Handler: router.SetupChi()}
*/
package api
