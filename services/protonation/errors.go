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
	"context"
	"errors"
	"net/http"

	"github.com/AleutianAI/protonation/pkg/validation"
	"github.com/AleutianAI/protonation/services/protonation/site"
	"github.com/AleutianAI/protonation/services/protonation/solver"
)

// Sentinel errors for the protonation service.
var (
	// ErrInvalidRequest indicates a malformed or incomplete request body.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPopulationTooLarge indicates the worst-case microstate count exceeds the limit.
	ErrPopulationTooLarge = errors.New("microstate population too large")

	// ErrTooManyGridPoints indicates the pH grid exceeds the limit.
	ErrTooManyGridPoints = errors.New("too many pH grid points")

	// ErrRegistryNotLoaded indicates no registry snapshot is available.
	ErrRegistryNotLoaded = errors.New("site registry not loaded")

	// ErrReloadDisabled indicates the registry reload endpoint is switched off.
	ErrReloadDisabled = errors.New("registry reload disabled")
)

// Error codes reported in metrics and logs.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidBoundaries  = "INVALID_BOUNDARIES"
	CodeInvalidStep        = "INVALID_STEP"
	CodeInvalidLiteral     = "INVALID_LITERAL"
	CodeSequenceTooLong    = "SEQUENCE_TOO_LONG"
	CodeTooManyGridPoints  = "TOO_MANY_GRID_POINTS"
	CodePopulationTooLarge = "POPULATION_TOO_LARGE"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL_ERROR"
)

// classify maps a service error to an HTTP status and error code.
//
// Everything the caller can fix is a 400. Anything unrecognised is a 500.
// A scan abandoned by its context is a 503.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeCancelled
	case errors.Is(err, solver.ErrInvalidBoundaries):
		return http.StatusBadRequest, CodeInvalidBoundaries
	case errors.Is(err, solver.ErrInvalidStep):
		return http.StatusBadRequest, CodeInvalidStep
	case errors.Is(err, site.ErrInvalidLiteral), errors.Is(err, site.ErrUnknownBehavior):
		return http.StatusBadRequest, CodeInvalidLiteral
	case errors.Is(err, validation.ErrSequenceTooLong):
		return http.StatusBadRequest, CodeSequenceTooLong
	case errors.Is(err, ErrTooManyGridPoints):
		return http.StatusBadRequest, CodeTooManyGridPoints
	case errors.Is(err, ErrPopulationTooLarge):
		return http.StatusBadRequest, CodePopulationTooLarge
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, validation.ErrNonFinite),
		errors.Is(err, validation.ErrInvalidEncoding):
		return http.StatusBadRequest, CodeInvalidRequest
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
