// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package protonation

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/protonation/services/protonation/middleware"
)

// RegisterRoutes registers all protonation routes with the router.
//
// Description:
//
//	Registers the protonation endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically the engine root)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST    /protonations - Scan a sequence over a pH range
//	OPTIONS /*any - CORS preflight
//	GET     /health - Liveness
//	GET     /ready - Registry readiness
//	POST    /admin/registry/reload - Reload the site registry (when enabled)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/protonations", handlers.HandleProtonations)
	rg.OPTIONS("/*any", middleware.Preflight)

	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/ready", handlers.HandleReady)

	if handlers.reloadEnabled {
		rg.POST("/admin/registry/reload", handlers.HandleReloadRegistry)
	}
}

// RegisterMetrics exposes gatherer at GET /metrics.
func RegisterMetrics(rg *gin.RouterGroup, gatherer prometheus.Gatherer) {
	rg.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// ServiceName names the otelgin server spans.
	ServiceName string

	// AllowOrigin is the Access-Control-Allow-Origin value.
	AllowOrigin string

	// Limiter throttles clients. Nil disables rate limiting.
	Limiter *middleware.KeyedLimiter

	// MaxBodyBytes caps request bodies. 0 disables.
	MaxBodyBytes int64

	// Gatherer backs /metrics. Nil omits the endpoint.
	Gatherer prometheus.Gatherer

	// AccessLog enables gin's request logger.
	AccessLog bool
}

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(handlers *Handlers, opts RouterOptions) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "protonation"
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.AccessLog {
		router.Use(gin.Logger())
	}
	router.Use(
		otelgin.Middleware(opts.ServiceName),
		middleware.RequestID(),
		middleware.CORS(opts.AllowOrigin),
		middleware.RateLimit(opts.Limiter, handlers.svc.Metrics().RecordRateLimited),
		middleware.BodyLimit(opts.MaxBodyBytes),
	)

	RegisterRoutes(&router.RouterGroup, handlers)
	if opts.Gatherer != nil {
		RegisterMetrics(&router.RouterGroup, opts.Gatherer)
	}
	return router
}
