// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidBoundaries is returned when the grid start is not below its end.
	ErrInvalidBoundaries = errors.New("invalid boundaries for pH range")

	// ErrInvalidStep is returned when the step is not positive or exceeds the range.
	ErrInvalidStep = errors.New("invalid step size for pH range")
)

// GridError carries the user-facing message for a rejected pH range.
//
// Error() returns the message verbatim; errors.Is matches the sentinel.
type GridError struct {
	Sentinel error
	Message  string
}

func (e *GridError) Error() string { return e.Message }

func (e *GridError) Unwrap() error { return e.Sentinel }

// BuildGrid returns the pH samples from low toward high in increments of step.
//
// The walk stops after the first value >= high, so the last sample may
// overshoot high: BuildGrid(2.0, 2.5, 0.3) yields [2.0, 2.3, 2.6].
func BuildGrid(low, high, step float64) ([]float64, error) {
	if !(low < high) {
		return nil, &GridError{
			Sentinel: ErrInvalidBoundaries,
			Message: fmt.Sprintf("Invalid boundaries for pH range! %s should be smaller than %s",
				formatNumber(low), formatNumber(high)),
		}
	}
	if !(step > 0) || step > high-low {
		return nil, &GridError{
			Sentinel: ErrInvalidStep,
			Message: fmt.Sprintf("Invalid step size for pH range! (%s, %s) should contain %s",
				formatNumber(low), formatNumber(high), formatNumber(step)),
		}
	}

	grid := []float64{low}
	last := low
	for last < high {
		last += step
		grid = append(grid, last)
	}
	return grid, nil
}

// GridSize predicts len(BuildGrid(low, high, step)) for a valid range.
//
// Used to reject oversized grids before allocating them. The estimate may be
// off by one from floating point accumulation.
func GridSize(low, high, step float64) int {
	if !(low < high) || !(step > 0) {
		return 0
	}
	n := math.Ceil((high-low)/step) + 1
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
