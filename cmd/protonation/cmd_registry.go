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
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/protonation/services/protonation/registry"
)

func newRegistryCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse a registry file and list its sites",
		Long: `Parse a registry file and list its sites.

On failure the line-indexed build error is printed and the command exits
with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.ParseFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d sites\n", reg.Source(), reg.Len())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tBEHAVIOR\tPKA")
			for _, key := range reg.Keys() {
				s, _ := reg.Lookup(key)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, s.Behavior, strconv.FormatFloat(s.PKa(), 'f', 2, 64))
			}
			return tw.Flush()
		},
	}
}
