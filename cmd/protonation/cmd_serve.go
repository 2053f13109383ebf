// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/protonation/pkg/logging"
	"github.com/AleutianAI/protonation/services/protonation"
	"github.com/AleutianAI/protonation/services/protonation/config"
	"github.com/AleutianAI/protonation/services/protonation/middleware"
	"github.com/AleutianAI/protonation/services/protonation/observability"
	"github.com/AleutianAI/protonation/services/protonation/registry"
	"github.com/AleutianAI/protonation/services/protonation/telemetry"
)

const serviceName = "protonation"

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Configuration is read from --config (YAML) and PROTONATION_* environment
variables. The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("PROTONATION_CONFIG"), "Path to the YAML config file")
	return cmd
}

// runServe runs the server until ctx is cancelled.
func runServe(ctx context.Context, cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Format:  cfg.Logging.Format,
		LogDir:  cfg.Logging.Dir,
		Service: serviceName,
	})
	defer logger.Close()
	logger.Install()

	if level == logging.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: protonation.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		TraceExporter:  cfg.Telemetry.TraceExporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(promRegistry)

	store, err := registry.NewStore(ctx, registry.StoreOptions{
		Path:     cfg.Registry.Path,
		Observer: metrics,
		Logger:   logger.Slog(),
	})
	if err != nil {
		return err
	}

	if cfg.Registry.Watch {
		watcher, err := registry.NewWatcher(store, cfg.Registry.Debounce, logger.Slog())
		if err != nil {
			return fmt.Errorf("registry watch: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("registry watch: %w", err)
		}
		defer watcher.Stop()
	}

	svc := protonation.NewService(store, protonation.ServiceConfig{
		MaxSequenceLength: cfg.Limits.MaxSequenceLength,
		MaxGridPoints:     cfg.Limits.MaxGridPoints,
		MaxMicrostates:    cfg.Limits.MaxMicrostates,
		Workers:           cfg.Server.Workers,
	}, metrics, logger.Slog())
	handlers := protonation.NewHandlers(svc).WithReload(cfg.Registry.ReloadEndpoint)

	var limiter *middleware.KeyedLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewKeyedLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	}

	router := protonation.NewRouter(handlers, protonation.RouterOptions{
		ServiceName:  serviceName,
		AllowOrigin:  cfg.Server.AllowOrigin,
		Limiter:      limiter,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Gatherer:     promRegistry,
		AccessLog:    level == logging.LevelDebug,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting protonation server",
			slog.String("address", srv.Addr),
			slog.String("registry", store.Current().Source()),
			slog.Int("workers", cfg.Server.Workers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down protonation server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
