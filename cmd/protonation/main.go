// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command protonation serves and runs protonation macrostate scans.
//
// Usage:
//
//	protonation serve --config protonation.yaml
//	protonation scan --sequence GDAKE --ph-range 2,12,0.5 --tol 0.001
//	protonation scan --site "NeuOrNeg,4.0" --site "PosOrNeu,9.1" --ph-range 3,5,1
//	protonation registry check groups.txt
//
// Example request:
//
//	curl -X POST http://localhost:8000/protonations \
//	  -H "Content-Type: application/json" \
//	  -d '{"sequence": "GDAKE", "ph_range": [2, 12, 1], "tol": 0.001}'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
