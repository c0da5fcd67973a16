// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package services

import (
	"context"
	"time"

	"github.com/tomtom215/eventfeed/internal/logging"
)

// MirrorRunner is satisfied by *mirror.Mirror.
type MirrorRunner interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}

// MirrorService drains the event mirror queue. On cancellation it flushes
// what is left for at most flushTimeout and closes the publisher. A Run
// failure is returned without closing so suture can restart the drain.
type MirrorService struct {
	mirror       MirrorRunner
	flushTimeout time.Duration
	name         string
}

// NewMirrorService creates a new mirror service wrapper.
func NewMirrorService(mirror MirrorRunner, flushTimeout time.Duration) *MirrorService {
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}
	return &MirrorService{
		mirror:       mirror,
		flushTimeout: flushTimeout,
		name:         "event-mirror",
	}
}

// Serve implements suture.Service.
func (s *MirrorService) Serve(ctx context.Context) error {
	err := s.mirror.Run(ctx)
	if ctx.Err() == nil {
		return err
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()
	if closeErr := s.mirror.Close(flushCtx); closeErr != nil {
		logging.Warn().Err(closeErr).Msg("Failed to close event mirror")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (s *MirrorService) String() string {
	return s.name
}
