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
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "protonation",
		Short: "Estimate net-charge distributions of ionisable sequences across pH",
		Long: `protonation enumerates the protonation microstates of a sequence of
ionisable sites and reports, for every pH sample, the fraction of the
ensemble holding each net charge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect site registry definition files",
	}
	registryCmd.AddCommand(newRegistryCheckCmd())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(registryCmd)
	return rootCmd
}
