// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package middleware provides chi-compatible HTTP middleware shared by all
routes.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern

Both have the func(http.Handler) http.Handler shape and are installed with
r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    ...
	})

PrometheusMetrics wraps the response writer with chi's WrapResponseWriter,
which keeps http.Hijacker available, so it may also sit in front of the
WebSocket upgrade route.
*/
package middleware
