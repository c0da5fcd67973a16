// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/eventfeed/internal/logging"
)

func serveWithRequestID(t *testing.T, incoming string) (header, fromContext, correlation string) {
	t.Helper()

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = GetRequestID(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if incoming != "" {
		req.Header.Set(HeaderRequestID, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec.Header().Get(HeaderRequestID), fromContext, correlation
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	header, ctxID, correlation := serveWithRequestID(t, "")

	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("Expected a UUID request id, got %q", header)
	}
	if ctxID != header {
		t.Errorf("Expected context id %q to match header %q", ctxID, header)
	}
	if correlation == "" {
		t.Error("Expected a correlation id in context")
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	header, ctxID, _ := serveWithRequestID(t, "edge-123.abc_DEF")

	if header != "edge-123.abc_DEF" {
		t.Errorf("Expected upstream id to be kept, got %q", header)
	}
	if ctxID != header {
		t.Errorf("Expected context id %q, got %q", header, ctxID)
	}
}

func TestRequestID_RejectsMalformedUpstreamID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"log injection", "abc\nlevel=error"},
		{"too long", strings.Repeat("a", maxRequestIDLength+1)},
		{"spaces", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, _, _ := serveWithRequestID(t, tt.incoming)
			if header == tt.incoming {
				t.Errorf("Expected malformed id to be replaced")
			}
			if _, err := uuid.Parse(header); err != nil {
				t.Errorf("Expected a generated UUID, got %q", header)
			}
		})
	}
}
