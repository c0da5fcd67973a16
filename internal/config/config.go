// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2, highest priority last):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables mapped by envTransformFunc
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Events    EventsConfig    `koanf:"events"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Security  SecurityConfig  `koanf:"security"`
	Storage   StorageConfig   `koanf:"storage"`
	Seed      SeedConfig      `koanf:"seed"`
	NATS      NATSConfig      `koanf:"nats"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EventsConfig holds the ring buffer and ingestion limits.
//
// Environment Variables:
//   - EVENTS_BUFFER_SIZE: per-tenant ring buffer capacity (default: 500)
//   - EVENTS_MESSAGE_MAX_LENGTH: maximum trimmed message length (default: 2048)
//   - EVENTS_REPLAY_DEFAULT_LIMIT: page size when no limit is given (default: 100)
//   - EVENTS_REPLAY_MAX_LIMIT: hard cap on page size (default: 500)
//   - EVENTS_SNAPSHOT_SIZE: events pushed on join (default: 10)
type EventsConfig struct {
	BufferSize         int `koanf:"buffer_size"`
	MessageMaxLength   int `koanf:"message_max_length"`
	ReplayDefaultLimit int `koanf:"replay_default_limit"`
	ReplayMaxLimit     int `koanf:"replay_max_limit"`
	SnapshotSize       int `koanf:"snapshot_size"`
}

// WebSocketConfig holds connection-level transport settings.
type WebSocketConfig struct {
	AuthTimeout    time.Duration `koanf:"auth_timeout"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	PingPeriod     time.Duration `koanf:"ping_period"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	SendBuffer     int           `koanf:"send_buffer"`
	PostRate       float64       `koanf:"post_rate"`  // post_event requests per second per connection
	PostBurst      int           `koanf:"post_burst"` // burst allowance for post_event
}

// SecurityConfig holds CORS and HTTP rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// BreakerFailureThreshold is the number of consecutive collaborator
	// failures that opens the authentication circuit breaker.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// StorageConfig holds BadgerDB settings for the tenant directory and user store.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// SeedConfig controls demo data loading at startup.
type SeedConfig struct {
	File    string   `koanf:"file"`
	Tenants []string `koanf:"tenants"`
}

// NATSConfig controls the optional NATS event mirror (build tag: nats).
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	QueueSize     int           `koanf:"queue_size"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	// Caller adds file:line to entries.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
