// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protonation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.AllowOrigin)
	assert.GreaterOrEqual(t, cfg.Server.Workers, 1)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Empty(t, cfg.Registry.Path)
	assert.False(t, cfg.Registry.ReloadEndpoint)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Limits, cfg.Limits)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
  allow_origin: "https://example.org"
limits:
  max_sequence_length: 500
registry:
  path: /etc/protonation/groups.txt
  watch: true
  debounce: 1s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "https://example.org", cfg.Server.AllowOrigin)
	assert.Equal(t, 500, cfg.Limits.MaxSequenceLength)
	assert.Equal(t, "/etc/protonation/groups.txt", cfg.Registry.Path)
	assert.True(t, cfg.Registry.Watch)
	assert.Equal(t, time.Second, cfg.Registry.Debounce)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultConfig().Limits.MaxGridPoints, cfg.Limits.MaxGridPoints)
	assert.Equal(t, DefaultConfig().RateLimit, cfg.RateLimit)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  prot: 9000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9100\n")
	t.Setenv("PROTONATION_PORT", "9200")
	t.Setenv("PROTONATION_ALLOW_ORIGIN", "https://lab.example")
	t.Setenv("PROTONATION_MAX_MICROSTATES", "5000")
	t.Setenv("PROTONATION_RATE_LIMIT_ENABLED", "false")
	t.Setenv("PROTONATION_REGISTRY_DEBOUNCE", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "https://lab.example", cfg.Server.AllowOrigin)
	assert.Equal(t, 5000.0, cfg.Limits.MaxMicrostates)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Registry.Debounce)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PROTONATION_PORT", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "Config.Server.Port"},
		{"empty origin", func(c *Config) { c.Server.AllowOrigin = "" }, "Config.Server.AllowOrigin"},
		{"no workers", func(c *Config) { c.Server.Workers = 0 }, "Config.Server.Workers"},
		{"zero microstates", func(c *Config) { c.Limits.MaxMicrostates = 0 }, "Config.Limits.MaxMicrostates"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "Config.Logging.Level"},
		{"bad exporter", func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }, "Config.Telemetry.TraceExporter"},
		{"otlp without endpoint", func(c *Config) {
			c.Telemetry.TraceExporter = "otlp"
			c.Telemetry.OTLPEndpoint = ""
		}, "Config.Telemetry.OTLPEndpoint"},
		{"sample ratio above one", func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, "Config.Telemetry.SampleRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
