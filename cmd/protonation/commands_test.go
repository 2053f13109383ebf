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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/protonation/services/protonation/registry"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCmd_Literals(t *testing.T) {
	out, err := execute(t, "scan", "--site", "NeuOrNeg,4.0", "--ph-range", "3,5,1", "--tol", "0.01")
	require.NoError(t, err)

	var got []map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.InDelta(t, 0.5, got[1]["0"], 1e-9)
	assert.InDelta(t, 0.5, got[1]["-1"], 1e-9)
}

func TestScanCmd_SequenceWithPH(t *testing.T) {
	out, err := execute(t, "scan", "--sequence", "DEK", "--ph-range", "2,4,1", "--with-ph", "--include-termini")
	require.NoError(t, err)

	var got []scanPoint
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []float64{2, 3, 4}, []float64{got[0].PH, got[1].PH, got[2].PH})
	assert.Greater(t, got[0].Distribution.RetainedMass(), 0.99)
}

func TestScanCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no sequence", []string{"scan"}, "sequence"},
		{"both forms", []string{"scan", "--sequence", "D", "--site", "NeuOrNeg,4"}, "sequence"},
		{"short range", []string{"scan", "--sequence", "D", "--ph-range", "3,5"}, "--ph-range"},
		{"bad boundaries", []string{"scan", "--sequence", "D", "--ph-range", "5,3,1"}, "Invalid boundaries for pH range! 5 should be smaller than 3"},
		{"bad literal", []string{"scan", "--site", "Foo,4"}, `"Foo,4"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistryCheckCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.txt")
	require.NoError(t, os.WriteFile(path, []byte("# test\nD: 1.88, 9.60, 3.65, NeuOrNeg\n"), 0o644))

	out, err := execute(t, "registry", "check", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, path+": 3 sites", lines[0])
	assert.Contains(t, lines[2], "CT-D")
	assert.Contains(t, lines[2], "NeuOrNeg")
	assert.Contains(t, lines[2], "1.88")
}

func TestRegistryCheckCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.txt")
	require.NoError(t, os.WriteFile(path, []byte("D: 1.88, 9.60, 3.65, Sideways\n"), 0o644))

	_, err := execute(t, "registry", "check", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrRegistry)
	assert.Equal(t, `[ Config::build ] Invalid group charge option at line index 0 (line value: "Sideways")`, err.Error())
}
