// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/middleware"
)

// Router wires handlers, auth and the WebSocket gateway onto chi.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	gateway       http.Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. gateway serves /ws/events and may be nil.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, gateway http.Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		auth:          authMiddleware,
		gateway:       gateway,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Event Feed
	// ========================
	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.auth.RequireTenant)
		r.Use(router.auth.RequireUser)

		r.Get("/", router.handler.ListEvents)
		r.Post("/", router.handler.PostEvent)
		r.Get("/stats", router.handler.EventStats)
		r.With(router.auth.RequireAdmin).Delete("/", router.handler.ClearEvents)
	})

	// ========================
	// Metrics and WebSocket
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	if router.gateway != nil {
		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws/events", router.gateway.ServeHTTP)
	}

	return r
}
