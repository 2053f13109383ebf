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
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/protonation/services/protonation/site"
)

// Distribution maps net charge to the summed probability of the microstates
// holding that charge.
//
// Values are not renormalized: with pruning they sum to less than 1.
type Distribution map[int]float64

// RetainedMass returns the total probability held by the distribution.
func (d Distribution) RetainedMass() float64 {
	total := 0.0
	for _, p := range d {
		total += p
	}
	return total
}

// UnaccountedMass returns the probability lost to pruning, 1 - RetainedMass.
func (d Distribution) UnaccountedMass() float64 {
	return math.Max(0, 1-d.RetainedMass())
}

// Charges returns the net charges present, ascending.
func (d Distribution) Charges() []int {
	charges := make([]int, 0, len(d))
	for c := range d {
		charges = append(charges, c)
	}
	sort.Ints(charges)
	return charges
}

// Aggregate sums microstate probabilities by net charge.
func Aggregate(states []Microstate) Distribution {
	dist := make(Distribution)
	for _, s := range states {
		dist[s.NetCharge()] += s.Probability
	}
	return dist
}

// SolvePoint enumerates and aggregates the sites at a single pH value.
func SolvePoint(sites []site.Site, ph, tolerance float64) Distribution {
	return Aggregate(Enumerate(sites, math.Pow(10, -ph), tolerance))
}

// Scan solves every pH value in order.
//
// The result has one Distribution per entry of phValues, in the same order.
// Duplicate pH values yield duplicate entries.
func Scan(sites []site.Site, phValues []float64, tolerance float64) []Distribution {
	out := make([]Distribution, 0, len(phValues))
	for _, ph := range phValues {
		out = append(out, SolvePoint(sites, ph, tolerance))
	}
	return out
}

// ScanParallel is Scan with the pH points evaluated concurrently.
//
// # Description
//
// At most workers points run at once. Each point writes into its own slot so
// the output order matches phValues exactly. Cancellation is observed between
// points only; a point that has started always completes.
//
// # Inputs
//
//   - ctx: Cancels the scan between points.
//   - sites: Ordered sites shared read-only by all workers.
//   - phValues: Grid to evaluate.
//   - tolerance: Pruning threshold.
//   - workers: Maximum concurrency. Values < 1 are treated as 1.
//
// # Outputs
//
//   - []Distribution: Same as Scan(sites, phValues, tolerance).
//   - error: The context error when cancelled. No partial result is returned.
func ScanParallel(ctx context.Context, sites []site.Site, phValues []float64, tolerance float64, workers int) ([]Distribution, error) {
	if workers < 1 {
		workers = 1
	}

	out := make([]Distribution, len(phValues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ph := range phValues {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = SolvePoint(sites, ph, tolerance)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
