// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input limits for user-provided scan requests.
//
// These checks run before any site is resolved or any microstate is
// enumerated, so oversized or malformed input is rejected without doing work.
// They never judge residue content: characters without a registry entry are
// legal input and are skipped during resolution.
package validation

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	// ErrSequenceTooLong is returned when a sequence exceeds the configured length.
	ErrSequenceTooLong = errors.New("sequence too long")

	// ErrNonFinite is returned for NaN or infinite numeric input.
	ErrNonFinite = errors.New("value must be finite")

	// ErrInvalidEncoding is returned for sequences that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("sequence is not valid UTF-8")
)

// ValidateSequence checks a residue sequence against maxLen characters.
//
// maxLen <= 0 disables the length check.
//
// Example:
//
//	if err := validation.ValidateSequence(req.Sequence, cfg.Limits.MaxSequenceLength); err != nil {
//	    return nil, err
//	}
func ValidateSequence(sequence string, maxLen int) error {
	if !utf8.ValidString(sequence) {
		return ErrInvalidEncoding
	}
	if maxLen > 0 {
		if n := utf8.RuneCountInString(sequence); n > maxLen {
			return fmt.Errorf("%w: %d characters, limit is %d", ErrSequenceTooLong, n, maxLen)
		}
	}
	return nil
}

// ValidateLiterals checks the number of site literals against maxCount.
//
// maxCount <= 0 disables the check.
func ValidateLiterals(literals []string, maxCount int) error {
	if maxCount > 0 && len(literals) > maxCount {
		return fmt.Errorf("%w: %d sites, limit is %d", ErrSequenceTooLong, len(literals), maxCount)
	}
	return nil
}

// ValidateFinite rejects NaN and infinite values.
//
// name identifies the field in the error message.
func ValidateFinite(name string, values ...float64) error {
	var bad []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, v)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s contains %v", ErrNonFinite, name, bad)
	}
	return nil
}
