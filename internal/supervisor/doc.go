// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package supervisor runs the long-lived services of the event feed under a
suture v4 supervisor tree.

	RootSupervisor ("eventfeed")
	├── DataSupervisor ("data-layer")
	│   └── badger-gc
	├── MessagingSupervisor ("messaging-layer")
	│   ├── websocket-hub
	│   └── event-mirror (if NATS_ENABLED, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services are restarted with backoff. Supervisor events are logged
through sutureslog on the slog adapter of internal/logging.

Usage Example:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddDataService(storage.NewGCService(db, 5*time.Minute))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}

Service wrappers live in the services subpackage.
*/
package supervisor
