// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("protonation.registry")

// ReloadObserver receives the outcome of every load attempt.
type ReloadObserver interface {
	ObserveRegistryLoad(source string, sites int, duration time.Duration, err error)
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Path of the definition file. Empty selects the embedded default table.
	Path string

	// Observer is notified of each load. Optional.
	Observer ReloadObserver

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store holds the registry in use.
//
// # Description
//
// The registry is built once by NewStore. Reload re-reads the definition and
// replaces the snapshot only when parsing succeeds, so a broken edit keeps
// the previous registry serving. Readers call Current and keep the returned
// pointer for the duration of a request.
//
// # Thread Safety
//
// Current is lock free. Reloads are serialised.
type Store struct {
	path     string
	observer ReloadObserver
	logger   *slog.Logger

	current atomic.Pointer[Registry]
	reload  sync.Mutex
}

// NewStore loads the initial registry.
//
// # Outputs
//
//   - *Store: Ready for use.
//   - error: The *BuildError of the initial load. There is no fallback to
//     the embedded table when a configured file fails.
func NewStore(ctx context.Context, opts StoreOptions) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:     opts.Path,
		observer: opts.Observer,
		logger:   logger.With("component", "registry"),
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the registry snapshot in use.
func (s *Store) Current() *Registry {
	return s.current.Load()
}

// Path returns the configured definition file, empty for the embedded table.
func (s *Store) Path() string { return s.path }

// Reload re-reads the definition and swaps it in on success.
//
// # Outputs
//
//   - *Registry: The newly installed registry.
//   - error: The build failure. The previous snapshot remains current.
func (s *Store) Reload(ctx context.Context) (*Registry, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	_, span := tracer.Start(ctx, "registry.Reload")
	defer span.End()

	start := time.Now()
	source := s.path
	if source == "" {
		source = SourceEmbedded
	}
	span.SetAttributes(attribute.String("source", source))

	var (
		reg *Registry
		err error
	)
	if s.path == "" {
		reg, err = Default()
	} else {
		reg, err = ParseFile(s.path)
	}

	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry load failed")
		s.notify(source, 0, elapsed, err)
		s.logger.Warn("registry load failed, keeping previous snapshot",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.current.Store(reg)
	span.SetAttributes(attribute.Int("site_count", reg.Len()))
	s.notify(source, reg.Len(), elapsed, nil)
	s.logger.Info("registry loaded",
		slog.String("source", source),
		slog.Int("site_count", reg.Len()),
		slog.Duration("duration", elapsed))
	return reg, nil
}

func (s *Store) notify(source string, sites int, d time.Duration, err error) {
	if s.observer != nil {
		s.observer.ObserveRegistryLoad(source, sites, d, err)
	}
}
