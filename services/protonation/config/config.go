// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the protonation service configuration.
//
// Values are resolved in three layers, later layers winning:
//
//  1. DefaultConfig()
//  2. an optional YAML file
//  3. PROTONATION_* environment variables
//
// The merged result is validated before it is returned.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize bounds the YAML file (256KB).
const MaxConfigFileSize = 256 * 1024

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Limits    LimitsConfig    `yaml:"limits"`
	Registry  RegistryConfig  `yaml:"registry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"PROTONATION_HOST"`
	Port            int           `yaml:"port" env:"PROTONATION_PORT" validate:"min=1,max=65535"`
	AllowOrigin     string        `yaml:"allow_origin" env:"PROTONATION_ALLOW_ORIGIN" validate:"required"`
	Workers         int           `yaml:"workers" env:"PROTONATION_WORKERS" validate:"min=1,max=1024"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"PROTONATION_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"PROTONATION_WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"PROTONATION_SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"PROTONATION_MAX_BODY_BYTES" validate:"min=1024"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LimitsConfig bounds the work a single request may cause.
type LimitsConfig struct {
	MaxSequenceLength int     `yaml:"max_sequence_length" env:"PROTONATION_MAX_SEQUENCE_LENGTH" validate:"min=1"`
	MaxGridPoints     int     `yaml:"max_grid_points" env:"PROTONATION_MAX_GRID_POINTS" validate:"min=1"`
	MaxMicrostates    float64 `yaml:"max_microstates" env:"PROTONATION_MAX_MICROSTATES" validate:"gt=0"`
}

// RegistryConfig selects the site registry source.
type RegistryConfig struct {
	// Path to a definition file. Empty uses the embedded amino acid table.
	Path           string        `yaml:"path" env:"PROTONATION_REGISTRY_PATH"`
	Watch          bool          `yaml:"watch" env:"PROTONATION_REGISTRY_WATCH"`
	Debounce       time.Duration `yaml:"debounce" env:"PROTONATION_REGISTRY_DEBOUNCE" validate:"gte=0"`
	ReloadEndpoint bool          `yaml:"reload_endpoint" env:"PROTONATION_REGISTRY_RELOAD_ENDPOINT"`
}

// RateLimitConfig controls the per-client token buckets.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" env:"PROTONATION_RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"PROTONATION_RATE_LIMIT_RPS" validate:"gt=0"`
	Burst             int           `yaml:"burst" env:"PROTONATION_RATE_LIMIT_BURST" validate:"min=1"`
	IdleTTL           time.Duration `yaml:"idle_ttl" env:"PROTONATION_RATE_LIMIT_IDLE_TTL" validate:"gt=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"PROTONATION_LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" env:"PROTONATION_LOG_FORMAT" validate:"oneof=auto json text"`
	Dir    string `yaml:"dir" env:"PROTONATION_LOG_DIR"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	TraceExporter string  `yaml:"trace_exporter" env:"PROTONATION_TRACE_EXPORTER" validate:"oneof=otlp stdout none"`
	OTLPEndpoint  string  `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" validate:"required_if=TraceExporter otlp"`
	OTLPInsecure  bool    `yaml:"otlp_insecure" env:"PROTONATION_OTLP_INSECURE"`
	SampleRatio   float64 `yaml:"sample_ratio" env:"PROTONATION_TRACE_SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment   string  `yaml:"environment" env:"PROTONATION_ENV"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			AllowOrigin:     "*",
			Workers:         runtime.NumCPU(),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Limits: LimitsConfig{
			MaxSequenceLength: 10000,
			MaxGridPoints:     2000,
			MaxMicrostates:    1e7,
		},
		Registry: RegistryConfig{
			Debounce: 250 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
			IdleTTL:           10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			OTLPEndpoint:  "localhost:4317",
			OTLPInsecure:  true,
			SampleRatio:   1,
			Environment:   "development",
		},
	}
}

// Load resolves the configuration from defaults, path and the environment.
//
// # Inputs
//
//   - path: YAML file. Empty skips the file layer. Unknown keys are rejected.
//
// # Outputs
//
//   - Config: The validated configuration.
//   - error: Read, decode, env or validation failure.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if info.Size() > MaxConfigFileSize {
		return fmt.Errorf("read config %s: file exceeds %d bytes", path, MaxConfigFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// ParseEnv overlays environment variables onto target.
//
// Variables that are unset leave the corresponding field untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks every field constraint.
//
// The returned error wraps ErrInvalidConfig and names each failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
