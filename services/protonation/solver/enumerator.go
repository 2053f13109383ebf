// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package solver computes charge microstate and macrostate distributions for
// a sequence of independent ionisable sites.
//
// # Description
//
// Enumerate expands the joint protonation states of the sites one site at a
// time. Each step splits every live microstate into a low-pH and a high-pH
// branch and discards branches whose probability is at or below the
// tolerance. Scan repeats this for every point of a pH grid and aggregates
// the survivors by net charge.
//
// # Approximation
//
// Pruning is greedy: a branch dropped at step k is never recovered, so for
// tolerance > 0 the retained probability can fall below 1. Distributions are
// reported as computed and are never renormalized.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package solver

import (
	"github.com/AleutianAI/protonation/services/protonation/site"
)

// Microstate is one joint charge assignment over the sites.
//
// ChargePattern has one entry per site in input order.
type Microstate struct {
	Probability   float64 `json:"probability"`
	ChargePattern []int   `json:"charge_pattern"`
}

// NetCharge returns the sum of the charge pattern.
func (m Microstate) NetCharge() int {
	total := 0
	for _, c := range m.ChargePattern {
		total += c
	}
	return total
}

// Enumerate returns the microstates of sites whose probability exceeds tolerance.
//
// # Description
//
// Starts from a single empty microstate with probability 1. For each site,
// with coeff = h / (h + Ka):
//
//  1. every live microstate spawns a high-pH branch with probability
//     p*(1-coeff), kept only when it is > tolerance;
//  2. every live microstate becomes its low-pH branch with probability
//     p*coeff, dropped when it is <= tolerance;
//  3. surviving high-pH branches are appended to the survivors.
//
// Without pruning (tolerance = 0 and no underflow) the result holds exactly
// 2^N microstates.
//
// # Inputs
//
//   - sites: Ordered sites. Ka must be > 0.
//   - hydrogenIonConcentration: [H+] = 10^-pH, must be > 0.
//   - tolerance: Pruning threshold in [0, 1).
//
// # Outputs
//
//   - []Microstate: Survivors. Order is not meaningful.
func Enumerate(sites []site.Site, hydrogenIonConcentration, tolerance float64) []Microstate {
	live := []Microstate{{Probability: 1.0, ChargePattern: make([]int, 0, len(sites))}}

	for _, s := range sites {
		low, high := s.Charges()
		coeff := hydrogenIonConcentration / (hydrogenIonConcentration + s.Ka)

		next := make([]Microstate, 0, 2*len(live))
		var highBranches []Microstate

		for _, state := range live {
			if p := state.Probability * (1 - coeff); p > tolerance {
				highBranches = append(highBranches, Microstate{
					Probability:   p,
					ChargePattern: extend(state.ChargePattern, high),
				})
			}
		}

		// The low-pH branch reuses the parent's backing array; the high-pH
		// branches above were copied before this append can overwrite it.
		for _, state := range live {
			if p := state.Probability * coeff; p > tolerance {
				next = append(next, Microstate{
					Probability:   p,
					ChargePattern: append(state.ChargePattern, low),
				})
			}
		}

		live = append(next, highBranches...)
	}

	return live
}

// extend returns a copy of pattern with c appended.
func extend(pattern []int, c int) []int {
	out := make([]int, len(pattern), len(pattern)+1)
	copy(out, pattern)
	return append(out, c)
}
