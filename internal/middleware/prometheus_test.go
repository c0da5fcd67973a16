// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/eventfeed/internal/metrics"
)

func newMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/events", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/v1/events", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	r.Get("/api/v1/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok")) // implicit 200
	})
	return r
}

func TestPrometheusMetrics(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		endpoint string
		status   string
	}{
		{"explicit 200", http.MethodGet, "/api/v1/events", "/api/v1/events", "200"},
		{"422", http.MethodPost, "/api/v1/events", "/api/v1/events", "422"},
		{"implicit 200 uses pattern", http.MethodGet, "/api/v1/items/42", "/api/v1/items/{id}", "200"},
		{"unmatched route", http.MethodGet, "/nope", unmatchedRoute, "404"},
	}

	router := newMetricsRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.status)
			before := testutil.ToFloat64(counter)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("Expected counter +1 for %s %s %s, got %v", tt.method, tt.endpoint, tt.status, got)
			}
		})
	}
}

func TestPrometheusMetrics_ActiveRequests(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)

	var during float64
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
		w.WriteHeader(http.StatusNoContent)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if during-before != 1 {
		t.Errorf("Expected 1 active request during handling, got %v", during-before)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("Expected active requests back to %v, got %v", before, after)
	}
}

func TestRoutePattern_NoChiContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	if got := routePattern(req); got != unmatchedRoute {
		t.Errorf("Expected %s, got %s", unmatchedRoute, got)
	}
}
