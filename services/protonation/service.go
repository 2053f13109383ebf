// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package protonation provides the HTTP service that estimates net-charge
// distributions of ionisable site sequences across a pH range.
//
// The service exposes endpoints for:
//   - Scanning a sequence over a pH grid
//   - Health and readiness probes
//   - Reloading the site registry
package protonation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/protonation/pkg/validation"
	"github.com/AleutianAI/protonation/services/protonation/observability"
	"github.com/AleutianAI/protonation/services/protonation/registry"
	"github.com/AleutianAI/protonation/services/protonation/site"
	"github.com/AleutianAI/protonation/services/protonation/solver"
	"github.com/AleutianAI/protonation/services/protonation/telemetry"
)

// ServiceVersion is the protonation service version.
const ServiceVersion = "0.1.0"

const tracerName = "protonation.service"

// RegistryStore supplies the current site registry.
//
// Implemented by *registry.Store.
type RegistryStore interface {
	Current() *registry.Registry
	Reload(ctx context.Context) (*registry.Registry, error)
}

// ServiceConfig configures the protonation service.
type ServiceConfig struct {
	// MaxSequenceLength caps residues or literals per request. 0 disables.
	// Default: 10000
	MaxSequenceLength int

	// MaxGridPoints caps the pH samples per request.
	// Default: 2000
	MaxGridPoints int

	// MaxMicrostates caps the worst-case live microstate estimate.
	// Default: 1e7
	MaxMicrostates float64

	// Workers is the number of pH points solved concurrently.
	// Default: runtime.NumCPU()
	Workers int
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxSequenceLength: 10000,
		MaxGridPoints:     2000,
		MaxMicrostates:    1e7,
		Workers:           runtime.NumCPU(),
	}
}

// ScanResult is the output of a successful scan.
type ScanResult struct {
	// Grid is the pH sample sequence that was evaluated.
	Grid []float64

	// Distributions has one entry per Grid value, in the same order.
	Distributions []solver.Distribution

	// SiteCount is the number of resolved sites.
	SiteCount int
}

// Service resolves sequences and runs pH scans.
//
// # Thread Safety
//
// Safe for concurrent use. The service keeps no per-request state.
type Service struct {
	config  ServiceConfig
	store   RegistryStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates a service.
//
// # Inputs
//
//   - store: Registry source for residue sequences. Must not be nil.
//   - config: Limits and concurrency.
//   - metrics: Optional. Nil disables metrics.
//   - logger: Optional. Nil uses slog.Default().
func NewService(store RegistryStore, config ServiceConfig, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "protonation_service"),
	}
}

// Metrics returns the metrics sink, possibly nil.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Registry returns the registry snapshot currently in use.
func (s *Service) Registry() *registry.Registry {
	return s.store.Current()
}

// ReloadRegistry rebuilds the registry from its source.
func (s *Service) ReloadRegistry(ctx context.Context) (*registry.Registry, error) {
	return s.store.Reload(ctx)
}

// Scan resolves the request's sites and evaluates every pH grid point.
//
// # Description
//
// All input checks run before enumeration: finite numbers, tolerance range,
// sequence length, literal parsing, grid shape and size, and the worst-case
// microstate population. The grid points are then solved concurrently.
//
// # Outputs
//
//   - *ScanResult: Grid and distributions in grid order.
//   - error: A user-facing rejection (see classify) or the context error.
//     No partial result accompanies an error.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Service.Scan")
	defer span.End()

	sites, grid, err := s.prepare(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("scan.sites", len(sites)),
		attribute.Int("scan.points", len(grid)),
		attribute.Float64("scan.tolerance", req.Tolerance),
	)

	done := s.metrics.ScanStarted(len(sites), len(grid))
	dists, err := solver.ScanParallel(ctx, sites, grid, req.Tolerance, s.config.Workers)
	done()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	worst := 0.0
	for _, d := range dists {
		lost := d.UnaccountedMass()
		s.metrics.RecordUnaccountedMass(lost)
		if lost > worst {
			worst = lost
		}
	}
	span.SetAttributes(attribute.Float64("scan.max_unaccounted_mass", worst))

	telemetry.LoggerWithTrace(ctx, s.logger).Debug("scan complete",
		slog.Int("sites", len(sites)),
		slog.Int("points", len(grid)),
		slog.Float64("max_unaccounted_mass", worst))

	return &ScanResult{Grid: grid, Distributions: dists, SiteCount: len(sites)}, nil
}

// prepare validates the request and returns the sites and pH grid.
func (s *Service) prepare(ctx context.Context, req ScanRequest) ([]site.Site, []float64, error) {
	if err := validation.ValidateFinite("ph_range", req.Start, req.End, req.Step); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateFinite("tol", req.Tolerance); err != nil {
		return nil, nil, err
	}
	if req.Tolerance < 0 || req.Tolerance >= 1 {
		return nil, nil, fmt.Errorf("%w: tol must be in [0, 1), got %s", ErrInvalidRequest, formatFloat(req.Tolerance))
	}

	sites, err := s.resolve(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	if n := solver.GridSize(req.Start, req.End, req.Step); n > s.config.MaxGridPoints {
		return nil, nil, fmt.Errorf("%w: the pH range would produce %d points, the limit is %d",
			ErrTooManyGridPoints, n, s.config.MaxGridPoints)
	}
	grid, err := solver.BuildGrid(req.Start, req.End, req.Step)
	if err != nil {
		return nil, nil, err
	}

	if worst := solver.WorstCaseStates(len(sites), req.Tolerance); worst > s.config.MaxMicrostates {
		return nil, nil, fmt.Errorf("%w: %d sites at tol %s may produce up to %s microstates, the limit is %s",
			ErrPopulationTooLarge, len(sites), formatFloat(req.Tolerance),
			strconv.FormatFloat(worst, 'g', 4, 64), strconv.FormatFloat(s.config.MaxMicrostates, 'g', 4, 64))
	}

	return sites, grid, nil
}

// resolve turns the sequence into sites via literals or the registry.
func (s *Service) resolve(ctx context.Context, req ScanRequest) ([]site.Site, error) {
	_, span := telemetry.StartSpan(ctx, tracerName, "Service.resolve")
	defer span.End()

	if req.Sequence.IsLiteral() {
		span.SetAttributes(attribute.String("sequence.form", "literal"))
		if err := validation.ValidateLiterals(req.Sequence.Literals, s.config.MaxSequenceLength); err != nil {
			return nil, err
		}
		return site.ParseLiterals(req.Sequence.Literals)
	}

	span.SetAttributes(
		attribute.String("sequence.form", "residues"),
		attribute.Bool("sequence.include_termini", req.IncludeTermini),
	)
	if err := validation.ValidateSequence(req.Sequence.Residues, s.config.MaxSequenceLength); err != nil {
		return nil, err
	}

	reg := s.store.Current()
	if reg == nil {
		telemetry.RecordError(span, ErrRegistryNotLoaded)
		return nil, ErrRegistryNotLoaded
	}
	sites := reg.Resolve(req.Sequence.Residues, req.IncludeTermini)
	span.SetAttributes(
		attribute.String("registry.source", reg.Source()),
		attribute.Int("sequence.sites", len(sites)),
	)
	return sites, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
