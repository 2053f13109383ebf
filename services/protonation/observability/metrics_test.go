// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMetrics registers metrics on an isolated registry.
func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestNewMetrics_RegistersAll(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordRequest("protonations", nil)
	m.RecordError("invalid_boundaries")
	m.RecordUnaccountedMass(0)
	m.ObserveRegistryLoad("embedded", 47, time.Millisecond, nil)
	m.RateLimitedTotal.Inc()
	m.ScanStarted(1, 1)()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"protonation_http_requests_total",
		"protonation_http_errors_total",
		"protonation_http_rate_limited_total",
		"protonation_scan_duration_seconds",
		"protonation_scan_grid_points",
		"protonation_scan_sites",
		"protonation_scan_unaccounted_mass",
		"protonation_scan_active",
		"protonation_registry_loads_total",
		"protonation_registry_load_duration_seconds",
		"protonation_registry_sites",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestRecordRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRequest("protonations", nil)
	m.RecordRequest("protonations", nil)
	m.RecordRequest("protonations", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("protonations", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("protonations", "error")))
}

func TestScanStarted_TracksActive(t *testing.T) {
	m, _ := newTestMetrics(t)

	done := m.ScanStarted(6, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveScans))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveScans))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ScanDurationSeconds))
}

func TestObserveRegistryLoad(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveRegistryLoad("embedded", 47, time.Millisecond, nil)
	m.ObserveRegistryLoad("groups.txt", 0, time.Millisecond, errors.New("bad line"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryLoadsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryLoadsTotal.WithLabelValues("error")))
	assert.Equal(t, 47.0, testutil.ToFloat64(m.RegistrySites))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("protonations", nil)
		m.RecordError("x")
		m.RecordRateLimited()
		m.RecordUnaccountedMass(0.1)
		m.ObserveRegistryLoad("embedded", 1, 0, nil)
		m.ScanStarted(1, 1)()
	})
}
