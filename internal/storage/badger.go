// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

// Package storage opens and maintains the BadgerDB instance that backs the
// tenant directory and the user store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/eventfeed/internal/logging"
)

// Options configures Open.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests and demo deployments.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// Open opens (or creates) the database.
func Open(opts Options) (*badger.DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("storage path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
		bopts.SyncWrites = opts.SyncWrites
	}

	// Reduce logging verbosity
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("Storage opened")
	return db, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*badger.DB, error) {
	return Open(Options{InMemory: true})
}

// RunGC triggers value log garbage collection until nothing is left to
// rewrite.
func RunGC(db *badger.DB, ratio float64) error {
	if db.Opts().InMemory {
		return nil
	}
	for {
		err := db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// GCService runs RunGC on an interval. It implements suture.Service.
type GCService struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
}

// NewGCService creates a GC service. A zero interval selects 10 minutes.
func NewGCService(db *badger.DB, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{db: db, interval: interval, ratio: 0.5}
}

// Serve runs until ctx is cancelled.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := RunGC(s.db, s.ratio); err != nil {
				logging.Warn().Err(err).Msg("Storage GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *GCService) String() string {
	return "storage-gc"
}
