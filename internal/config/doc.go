// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package config loads and validates eventfeed configuration.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file, located via CONFIG_PATH or DefaultConfigPaths
 3. Environment variables, mapped explicitly by envMappings

Environment variables win over the file, and the file wins over defaults.
Only variables listed in envMappings are read; everything else in the
process environment is ignored.

# Key Variables

	HTTP_PORT / PORT            listen port (3000)
	EVENTS_BUFFER_SIZE          per-tenant ring capacity (500)
	EVENTS_MESSAGE_MAX_LENGTH   max trimmed message length in characters (2048)
	WS_AUTH_TIMEOUT             first-frame auth deadline (10s)
	ALLOWED_ORIGINS             comma-separated CORS origins
	STORAGE_PATH                BadgerDB directory (/data/eventfeed)
	SEED_FILE / SEED_TENANTS    demo data loaded at startup
	NATS_ENABLED / NATS_URL     optional event mirror (requires -tags nats)
	LOG_LEVEL / LOG_FORMAT      zerolog level and output format

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	srv := &http.Server{Addr: cfg.Server.Addr()}

Validation runs as part of Load; an invalid value aborts startup with an
error naming the offending variable.
*/
package config
