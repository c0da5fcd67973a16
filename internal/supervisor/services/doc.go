// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package services adapts event feed components to suture.Service.

Each wrapper translates a component lifecycle into the context-aware Serve
pattern and names itself through fmt.Stringer for supervisor logs:

	HTTPServerService    ListenAndServe/Shutdown     http-server
	WebSocketHubService  RunWithContext              websocket-hub
	MirrorService        Run, then Close with flush  event-mirror

The BadgerDB value log GC service in internal/storage already implements
suture.Service and is added to the tree directly.

Components are described by small interfaces (HTTPServer, ContextHub,
MirrorRunner) so this package does not import them.

Usage Example:

	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewMirrorService(m, 5*time.Second))
*/
package services
