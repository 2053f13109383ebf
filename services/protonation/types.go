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
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// Request Types
// =============================================================================

// Sequence is either a residue string resolved through the registry or a
// list of "<behavior>,<pKa>" literals.
//
// On the wire it is a JSON string or a JSON array of strings.
type Sequence struct {
	// Residues holds the string form.
	Residues string

	// Literals holds the array form. Non-nil exactly when the array form was used.
	Literals []string
}

// IsLiteral reports whether the array form was used.
func (s Sequence) IsLiteral() bool {
	return s.Literals != nil
}

// UnmarshalJSON accepts a string or an array of strings.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrInvalidRequest)
	}

	switch trimmed[0] {
	case '"':
		var residues string
		if err := json.Unmarshal(trimmed, &residues); err != nil {
			return fmt.Errorf("%w: sequence: %v", ErrInvalidRequest, err)
		}
		*s = Sequence{Residues: residues}
		return nil
	case '[':
		literals := []string{}
		if err := json.Unmarshal(trimmed, &literals); err != nil {
			return fmt.Errorf("%w: sequence must be a string or an array of strings", ErrInvalidRequest)
		}
		*s = Sequence{Literals: literals}
		return nil
	default:
		return fmt.Errorf("%w: sequence must be a string or an array of strings", ErrInvalidRequest)
	}
}

// MarshalJSON writes the form that was parsed.
func (s Sequence) MarshalJSON() ([]byte, error) {
	if s.IsLiteral() {
		return json.Marshal(s.Literals)
	}
	return json.Marshal(s.Residues)
}

// ProtonationRequest is the body of POST /protonations.
//
// PHRange is [start, end, step].
type ProtonationRequest struct {
	Sequence       *Sequence `json:"sequence" binding:"required"`
	PHRange        []float64 `json:"ph_range" binding:"required,len=3"`
	Tol            *float64  `json:"tol" binding:"required,gte=0,lt=1"`
	IncludeTermini bool      `json:"include_termini"`
}

// ScanRequest is the transport-neutral input to Service.Scan.
type ScanRequest struct {
	Sequence       Sequence
	Start          float64
	End            float64
	Step           float64
	Tolerance      float64
	IncludeTermini bool
}

// ToScanRequest converts a bound HTTP request.
func (r ProtonationRequest) ToScanRequest() (ScanRequest, error) {
	if r.Sequence == nil || len(r.PHRange) != 3 || r.Tol == nil {
		return ScanRequest{}, fmt.Errorf("%w: sequence, ph_range and tol are required", ErrInvalidRequest)
	}
	return ScanRequest{
		Sequence:       *r.Sequence,
		Start:          r.PHRange[0],
		End:            r.PHRange[1],
		Step:           r.PHRange[2],
		Tolerance:      *r.Tol,
		IncludeTermini: r.IncludeTermini,
	}, nil
}

// =============================================================================
// Response Types
// =============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Ready    bool      `json:"ready"`
	Source   string    `json:"source,omitempty"`
	Sites    int       `json:"sites"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// ReloadResponse is the body of a successful POST /admin/registry/reload.
type ReloadResponse struct {
	Source   string    `json:"source"`
	Sites    int       `json:"sites"`
	LoadedAt time.Time `json:"loaded_at"`
}
