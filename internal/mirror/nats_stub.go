// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

//go:build !nats

package mirror

import (
	"context"

	"github.com/tomtom215/eventfeed/internal/config"
	"github.com/tomtom215/eventfeed/internal/events"
)

// NATSPublisher is a stub when NATS dependencies are not compiled in.
type NATSPublisher struct{}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher returns ErrNATSNotEnabled.
func NewNATSPublisher(config.NATSConfig) (*NATSPublisher, error) {
	return nil, ErrNATSNotEnabled
}

// Publish returns ErrNATSNotEnabled.
func (p *NATSPublisher) Publish(context.Context, string, events.Event) error {
	return ErrNATSNotEnabled
}

// Close is a no-op.
func (p *NATSPublisher) Close() error {
	return nil
}
