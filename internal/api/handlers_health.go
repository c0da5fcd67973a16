// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/eventfeed/internal/logging"
)

// readinessTimeout bounds all readiness checks of one probe.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probes. It returns 200 while the process is
// up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes. It returns 503 SERVICE_UNAVAILABLE
// when any check fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	ready := true
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			ready = false
			results[c.Name] = err.Error()
			logging.Ctx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			continue
		}
		results[c.Name] = "ok"
	}

	data := map[string]any{
		"ready":  ready,
		"checks": results,
		"uptime": time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", data)
		return
	}
	rw.Success(data)
}

// StorageCheck fails once db has been closed.
func StorageCheck(db *badger.DB) ReadinessCheck {
	return ReadinessCheck{
		Name: "storage",
		Check: func(context.Context) error {
			if db == nil || db.IsClosed() {
				return errors.New("storage closed")
			}
			return nil
		},
	}
}

// BreakerCheck fails while the named circuit breaker is open.
func BreakerCheck(name string, state func() string) ReadinessCheck {
	return ReadinessCheck{
		Name: name,
		Check: func(context.Context) error {
			if s := state(); s == "open" {
				return fmt.Errorf("circuit breaker %s", s)
			}
			return nil
		},
	}
}
