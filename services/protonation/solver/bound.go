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

import "math"

// WorstCaseStates bounds the number of live microstates Enumerate can hold
// for n sites at the given tolerance.
//
// With tolerance 0 the bound is 2^n. Otherwise every survivor carries more
// than tolerance and survivors sum to at most 1, so at most 1/tolerance
// survive a step and twice that exist mid-step. Large n with tolerance 0 yields +Inf.
func WorstCaseStates(n int, tolerance float64) float64 {
	if n <= 0 {
		return 1
	}
	full := math.Pow(2, float64(n))
	if tolerance <= 0 {
		return full
	}
	return math.Min(full, 2/tolerance)
}
