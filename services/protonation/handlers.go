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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/protonation/services/protonation/middleware"
	"github.com/AleutianAI/protonation/services/protonation/registry"
)

// internalErrorMessage is the body of every 500 response.
const internalErrorMessage = "Internal server error"

// Endpoint labels used in metrics.
const (
	endpointProtonations = "protonations"
	endpointReload       = "registry_reload"
)

// Handlers contains the HTTP handlers for the protonation service.
type Handlers struct {
	svc           *Service
	reloadEnabled bool
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// WithReload enables POST /admin/registry/reload.
func (h *Handlers) WithReload(enabled bool) *Handlers {
	h.reloadEnabled = enabled
	return h
}

// HandleProtonations handles POST /protonations.
//
// Description:
//
//	Resolves the sequence into sites, builds the pH grid and returns the
//	net-charge distribution at every grid point.
//
// Request Body:
//
//	ProtonationRequest
//
// Response:
//
//	200 OK: JSON array, one object per pH point mapping net charge to probability
//	400 Bad Request: Plain-text rejection message
//	500 Internal Server Error: Plain-text message
func (h *Handlers) HandleProtonations(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleProtonations")

	var body ProtonationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, logger, endpointProtonations, bindError(err))
		return
	}

	req, err := body.ToScanRequest()
	if err != nil {
		h.fail(c, logger, endpointProtonations, err)
		return
	}

	res, err := h.svc.Scan(c.Request.Context(), req)
	if err != nil {
		h.fail(c, logger, endpointProtonations, err)
		return
	}

	h.svc.Metrics().RecordRequest(endpointProtonations, nil)
	logger.Info("Scan served",
		slog.Int("sites", res.SiteCount),
		slog.Int("points", len(res.Grid)))
	c.JSON(http.StatusOK, res.Distributions)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /ready.
//
// Response:
//
//	200 OK: ReadyResponse with the registry in use
//	503 Service Unavailable: No registry loaded
func (h *Handlers) HandleReady(c *gin.Context) {
	reg := h.svc.Registry()
	if reg == nil {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:    true,
		Source:   reg.Source(),
		Sites:    reg.Len(),
		LoadedAt: reg.LoadedAt(),
	})
}

// HandleReloadRegistry handles POST /admin/registry/reload.
//
// Description:
//
//	Rebuilds the site registry from its source. A failed reload keeps the
//	previous registry in service.
//
// Response:
//
//	200 OK: ReloadResponse
//	404 Not Found: Reload disabled
//	422 Unprocessable Entity: Plain-text registry build error
func (h *Handlers) HandleReloadRegistry(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleReloadRegistry")

	if !h.reloadEnabled {
		c.String(http.StatusNotFound, ErrReloadDisabled.Error())
		return
	}

	reg, err := h.svc.ReloadRegistry(c.Request.Context())
	if err != nil {
		h.svc.Metrics().RecordRequest(endpointReload, err)
		if errors.Is(err, registry.ErrRegistry) {
			logger.Warn("Registry reload rejected", "error", err)
			c.String(http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Error("Registry reload failed", "error", err)
		c.String(http.StatusInternalServerError, internalErrorMessage)
		return
	}

	h.svc.Metrics().RecordRequest(endpointReload, nil)
	logger.Info("Registry reloaded", "source", reg.Source(), "sites", reg.Len())
	c.JSON(http.StatusOK, ReloadResponse{
		Source:   reg.Source(),
		Sites:    reg.Len(),
		LoadedAt: reg.LoadedAt(),
	})
}

// fail writes err as a plain-text response with the mapped status.
func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, endpoint string, err error) {
	status, code := classify(err)
	metrics := h.svc.Metrics()
	metrics.RecordError(code)
	metrics.RecordRequest(endpoint, err)

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("Request failed", "error", err, "code", code)
		c.String(status, internalErrorMessage)
		return
	}

	logger.Warn("Request rejected", "error", err, "code", code)
	c.String(status, err.Error())
}

// bindError converts a gin binding failure into an ErrInvalidRequest.
func bindError(err error) error {
	if errors.Is(err, ErrInvalidRequest) {
		return err
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidRequest, maxBytes.Limit)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

// fieldMessage renders one validation failure with the JSON field name.
func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch name {
	case "Sequence":
		name = "sequence"
	case "PHRange":
		name = "ph_range"
	case "Tol":
		name = "tol"
	}

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "len":
		return fmt.Sprintf("%s must have exactly %s elements", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be < %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", name, fe.Tag())
	}
}
