// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the protonation service.
//
// # Description
//
// Metrics include:
//   - Request counters (by endpoint and status)
//   - Scan latency, grid size and site count histograms
//   - Probability mass lost to pruning per pH point
//   - Registry load outcomes and current size
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
// Every method is a no-op on a nil *Metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "protonation"

const (
	scanSubsystem     = "scan"
	registrySubsystem = "registry"
	httpSubsystem     = "http"
)

// Metrics holds all Prometheus metrics of the service.
//
// # Fields
//
//   - RequestsTotal: Requests by endpoint and status (success, error)
//   - ErrorsTotal: Rejected requests by error code
//   - RateLimitedTotal: Requests refused by the rate limiter
//   - ScanDurationSeconds: Wall time of a full scan
//   - GridPoints: Number of pH samples per scan
//   - SitesPerScan: Number of sites per scan
//   - UnaccountedMass: 1 - retained probability, per pH point
//   - ActiveScans: Scans currently running
//   - RegistryLoadsTotal: Registry loads by status
//   - RegistryLoadDurationSeconds: Registry load latency
//   - RegistrySites: Entries in the current registry
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter

	ScanDurationSeconds prometheus.Histogram
	GridPoints          prometheus.Histogram
	SitesPerScan        prometheus.Histogram
	UnaccountedMass     prometheus.Histogram
	ActiveScans         prometheus.Gauge

	RegistryLoadsTotal          *prometheus.CounterVec
	RegistryLoadDurationSeconds prometheus.Histogram
	RegistrySites               prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg.
//
// # Inputs
//
//   - reg: Registerer to use. prometheus.DefaultRegisterer in production,
//     a fresh prometheus.NewRegistry() in tests.
//
// # Limitations
//
//   - Panics if called twice with the same registerer (duplicate registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "requests_total",
				Help:      "Total requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "errors_total",
				Help:      "Total rejected requests by error code",
			},
			[]string{"error_code"},
		),

		RateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "rate_limited_total",
				Help:      "Total requests refused by the per-client rate limiter",
			},
		),

		ScanDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scanSubsystem,
				Name:      "duration_seconds",
				Help:      "Wall time of a full pH scan in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),

		GridPoints: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scanSubsystem,
				Name:      "grid_points",
				Help:      "Number of pH samples per scan",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
			},
		),

		SitesPerScan: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scanSubsystem,
				Name:      "sites",
				Help:      "Number of ionisable sites per scan",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),

		UnaccountedMass: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scanSubsystem,
				Name:      "unaccounted_mass",
				Help:      "Probability mass discarded by pruning, per pH point",
				Buckets:   []float64{0, 1e-9, 1e-6, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.5},
			},
		),

		ActiveScans: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: scanSubsystem,
				Name:      "active",
				Help:      "Number of scans currently running",
			},
		),

		RegistryLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: registrySubsystem,
				Name:      "loads_total",
				Help:      "Total registry load attempts by status",
			},
			[]string{"status"},
		),

		RegistryLoadDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: registrySubsystem,
				Name:      "load_duration_seconds",
				Help:      "Duration of registry loading",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5},
			},
		),

		RegistrySites: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: registrySubsystem,
				Name:      "sites",
				Help:      "Number of entries in the registry currently serving",
			},
		),
	}
}

// =============================================================================
// Recording Helpers
// =============================================================================

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordError counts a rejected request by code.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(code).Inc()
}

// RecordRateLimited counts a request refused by the limiter.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// ScanStarted marks a scan as running and returns a func to call when done.
//
// # Example
//
//	done := metrics.ScanStarted(len(sites), len(grid))
//	defer done()
func (m *Metrics) ScanStarted(sites, points int) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.ActiveScans.Inc()
	m.SitesPerScan.Observe(float64(sites))
	m.GridPoints.Observe(float64(points))
	return func() {
		m.ActiveScans.Dec()
		m.ScanDurationSeconds.Observe(time.Since(start).Seconds())
	}
}

// RecordUnaccountedMass observes the pruned mass of one pH point.
func (m *Metrics) RecordUnaccountedMass(mass float64) {
	if m == nil {
		return
	}
	m.UnaccountedMass.Observe(mass)
}

// ObserveRegistryLoad records the outcome of a registry load.
//
// Satisfies registry.ReloadObserver. The site gauge only moves on success.
func (m *Metrics) ObserveRegistryLoad(_ string, sites int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RegistryLoadDurationSeconds.Observe(d.Seconds())
	if err != nil {
		m.RegistryLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RegistryLoadsTotal.WithLabelValues("success").Inc()
	m.RegistrySites.Set(float64(sites))
}
