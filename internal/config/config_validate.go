// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/eventfeed/internal/logging"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateWebSocket(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := c.Events
	if e.BufferSize < 1 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be at least 1, got %d", e.BufferSize)
	}
	if e.MessageMaxLength < 1 {
		return fmt.Errorf("EVENTS_MESSAGE_MAX_LENGTH must be at least 1, got %d", e.MessageMaxLength)
	}
	if e.ReplayMaxLimit < 1 {
		return fmt.Errorf("EVENTS_REPLAY_MAX_LIMIT must be at least 1, got %d", e.ReplayMaxLimit)
	}
	if e.ReplayDefaultLimit < 1 || e.ReplayDefaultLimit > e.ReplayMaxLimit {
		return fmt.Errorf("EVENTS_REPLAY_DEFAULT_LIMIT must be between 1 and %d, got %d",
			e.ReplayMaxLimit, e.ReplayDefaultLimit)
	}
	if e.SnapshotSize < 0 {
		return fmt.Errorf("EVENTS_SNAPSHOT_SIZE must not be negative, got %d", e.SnapshotSize)
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	if ws.AuthTimeout <= 0 {
		return fmt.Errorf("WS_AUTH_TIMEOUT must be positive")
	}
	if ws.PongWait <= 0 || ws.WriteWait <= 0 {
		return fmt.Errorf("WS_PONG_WAIT and WS_WRITE_WAIT must be positive")
	}
	if ws.PingPeriod <= 0 || ws.PingPeriod >= ws.PongWait {
		return fmt.Errorf("WS_PING_INTERVAL (%v) must be positive and shorter than WS_PONG_WAIT (%v)",
			ws.PingPeriod, ws.PongWait)
	}
	if ws.MaxMessageSize < 1024 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 1024 bytes, got %d", ws.MaxMessageSize)
	}
	if ws.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1, got %d", ws.SendBuffer)
	}
	if ws.PostRate <= 0 || ws.PostBurst < 1 {
		return fmt.Errorf("WS_POST_RATE must be positive and WS_POST_BURST at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.Security.BreakerFailureThreshold < 1 {
		return fmt.Errorf("AUTH_BREAKER_THRESHOLD must be at least 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("STORAGE_PATH is required unless STORAGE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	u, err := url.Parse(c.NATS.URL)
	if err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return fmt.Errorf("NATS_URL must use nats:// or tls:// scheme, got %q", u.Scheme)
	}
	if strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS_ENABLED=true")
	}
	if c.NATS.QueueSize < 1 {
		return fmt.Errorf("NATS_QUEUE_SIZE must be at least 1, got %d", c.NATS.QueueSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}

// HasWildcardCORS reports whether any configured origin is "*".
func (c *Config) HasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
