// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/protonation/services/protonation"
	"github.com/AleutianAI/protonation/services/protonation/registry"
	"github.com/AleutianAI/protonation/services/protonation/solver"
)

// scanOptions holds the flags of the scan command.
type scanOptions struct {
	sequence       string
	sites          []string
	phRange        []float64
	tol            float64
	includeTermini bool
	registryPath   string
	workers        int
	withPH         bool
	indent         bool
}

// scanPoint is one entry of the --with-ph output.
type scanPoint struct {
	PH           float64             `json:"ph"`
	Distribution solver.Distribution `json:"distribution"`
}

func newScanCmd() *cobra.Command {
	opts := scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan offline and print the JSON result",
		Long: `Run a scan offline and print the JSON result.

The sequence is given either as residues resolved through the site registry
(--sequence) or as repeated site literals (--site "NeuOrNeg,4.0").`,
		Example: `  protonation scan --sequence GDAKE --ph-range 2,12,1 --tol 0.001
  protonation scan --site "NeuOrNeg,4.0" --site "PosOrNeu,9.1" --ph-range 3,5,1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.sequence, "sequence", "s", "", "Residue sequence resolved through the registry")
	flags.StringArrayVar(&opts.sites, "site", nil, `Site literal "<behavior>,<pKa>", repeatable`)
	flags.Float64SliceVar(&opts.phRange, "ph-range", []float64{0, 14, 1}, "pH grid as start,end,step")
	flags.Float64Var(&opts.tol, "tol", 0.001, "Pruning tolerance in [0, 1)")
	flags.BoolVar(&opts.includeTermini, "include-termini", false, "Add N- and C-terminal sites to a residue sequence")
	flags.StringVar(&opts.registryPath, "registry", "", "Registry definition file (default: embedded amino acid table)")
	flags.IntVar(&opts.workers, "workers", runtime.NumCPU(), "pH points solved concurrently")
	flags.BoolVar(&opts.withPH, "with-ph", false, "Pair every distribution with its pH value")
	flags.BoolVar(&opts.indent, "indent", false, "Indent the JSON output")
	cmd.MarkFlagsMutuallyExclusive("sequence", "site")
	cmd.MarkFlagsOneRequired("sequence", "site")

	return cmd
}

func runScan(cmd *cobra.Command, opts scanOptions) error {
	if len(opts.phRange) != 3 {
		return errors.New("--ph-range needs exactly three values: start,end,step")
	}

	store, err := registry.NewStore(cmd.Context(), registry.StoreOptions{
		Path:   opts.registryPath,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return err
	}

	cfg := protonation.DefaultServiceConfig()
	cfg.Workers = opts.workers
	svc := protonation.NewService(store, cfg, nil, nil)

	seq := protonation.Sequence{Residues: opts.sequence}
	if cmd.Flags().Changed("site") {
		seq = protonation.Sequence{Literals: opts.sites}
	}

	res, err := svc.Scan(cmd.Context(), protonation.ScanRequest{
		Sequence:       seq,
		Start:          opts.phRange[0],
		End:            opts.phRange[1],
		Step:           opts.phRange[2],
		Tolerance:      opts.tol,
		IncludeTermini: opts.includeTermini,
	})
	if err != nil {
		return err
	}

	var out any = res.Distributions
	if opts.withPH {
		points := make([]scanPoint, len(res.Grid))
		for i, ph := range res.Grid {
			points[i] = scanPoint{PH: ph, Distribution: res.Distributions[i]}
		}
		out = points
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
