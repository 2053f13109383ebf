// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/protonation/services/protonation/site"
)

func TestParse_TwoValueLine(t *testing.T) {
	reg, err := Parse([]byte("G: 2.34, 9.60\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"CT-G", "NT-G"}, reg.Keys())

	ct, ok := reg.Lookup("CT-G")
	require.True(t, ok)
	assert.Equal(t, site.NeuOrNeg, ct.Behavior)
	assert.InDelta(t, 2.34, ct.PKa(), 1e-9)

	nt, ok := reg.Lookup("NT-G")
	require.True(t, ok)
	assert.Equal(t, site.PosOrNeu, nt.Behavior)
	assert.InDelta(t, 9.60, nt.PKa(), 1e-9)

	_, ok = reg.Lookup("G")
	assert.False(t, ok)
}

func TestParse_FourValueLine(t *testing.T) {
	reg, err := Parse([]byte("K: 2.18, 8.95, 10.53, PosOrNeu"))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	k, ok := reg.Lookup("K")
	require.True(t, ok)
	assert.Equal(t, site.PosOrNeu, k.Behavior)
	assert.InDelta(t, 10.53, k.PKa(), 1e-9)
}

func TestParse_SkipsCommentsAndBlankLines(t *testing.T) {
	def := "# header\n\nD: 1.88, 9.60, 3.65, NeuOrNeg\n# trailing\n"
	reg, err := Parse([]byte(def))
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, SourceInline, reg.Source())
	assert.False(t, reg.LoadedAt().IsZero())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		def     string
		line    int
		message string
	}{
		{
			name:    "only comments",
			def:     "# nothing\n\n",
			line:    LineNone,
			message: "[ Config::build ] The config file does not contain any valid lines!",
		},
		{
			name:    "no colon",
			def:     "# c\nG 2.34, 9.60",
			line:    1,
			message: `[ Config::build ] Invalid line syntax at line index 1 (line value: "G 2.34, 9.60")`,
		},
		{
			name:    "two colons",
			def:     "G: 2.34: 9.60",
			line:    0,
			message: `[ Config::build ] Invalid line syntax at line index 0 (line value: "G: 2.34: 9.60")`,
		},
		{
			name:    "three values",
			def:     "A: 2.34, 9.69\n\nK: 2.18, 8.95, 10.53",
			line:    2,
			message: `[ Config::build ] Invalid number of group values at line index 2 (line value: "K: 2.18, 8.95, 10.53")`,
		},
		{
			name:    "bad behavior",
			def:     "K: 2.18, 8.95, 10.53, Positive",
			line:    0,
			message: `[ Config::build ] Invalid group charge option at line index 0 (line value: "Positive")`,
		},
		{
			name:    "bad number",
			def:     "K: 2.18, eight, 10.53, PosOrNeu",
			line:    0,
			message: `[ Config::build ] Parsing to float failed at line index 0 (line value: "K: 2.18, eight, 10.53, PosOrNeu")`,
		},
		{
			name:    "duplicate terminal key",
			def:     "A: 2.34, 9.69\nA: 2.30, 9.70",
			line:    1,
			message: "[ Config::build ] Key CT-A already exists at line index 1!",
		},
		{
			name:    "whitespace only line",
			def:     "A: 2.34, 9.69\n   ",
			line:    1,
			message: `[ Config::build ] Invalid line syntax at line index 1 (line value: "   ")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Parse([]byte(tt.def))
			assert.Nil(t, reg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRegistry)
			assert.Equal(t, tt.message, err.Error())

			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.line, be.Line)
		})
	}
}

func TestParse_CRLF(t *testing.T) {
	reg, err := Parse([]byte("# c\r\nA: 2.34, 9.69\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.txt")
	require.NoError(t, os.WriteFile(path, []byte("A: 2.34, 9.69\n"), 0o644))

	reg, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, reg.Source())
	assert.Equal(t, 2, reg.Len())
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegistry)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, strings.HasPrefix(err.Error(), "[ Config::build ] Error during reading the config file! Message:\n"))
}

func TestParseFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("#", MaxDefinitionSize+1)), 0o644))

	_, err := ParseFile(path)
	assert.ErrorIs(t, err, ErrRegistry)
}

func TestDefault(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, SourceEmbedded, reg.Source())
	// 20 residues with two terminal entries each, 7 with a side chain.
	assert.Equal(t, 47, reg.Len())

	for _, key := range []string{"D", "E", "C", "Y", "H", "K", "R"} {
		_, ok := reg.Lookup(key)
		assert.True(t, ok, "side chain %s", key)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	t.Run("skips unmapped characters", func(t *testing.T) {
		sites := reg.Resolve("GDAKXz", false)
		require.Len(t, sites, 2)
		assert.Equal(t, site.NeuOrNeg, sites[0].Behavior)
		assert.InDelta(t, 3.65, sites[0].PKa(), 1e-9)
		assert.Equal(t, site.PosOrNeu, sites[1].Behavior)
		assert.InDelta(t, 10.53, sites[1].PKa(), 1e-9)
	})

	t.Run("empty sequence", func(t *testing.T) {
		assert.Empty(t, reg.Resolve("", true))
		assert.NotNil(t, reg.Resolve("", true))
	})

	t.Run("includes termini", func(t *testing.T) {
		sites := reg.Resolve("GDA", true)
		require.Len(t, sites, 3)
		assert.Equal(t, site.PosOrNeu, sites[0].Behavior)
		assert.InDelta(t, 9.60, sites[0].PKa(), 1e-9)
		assert.InDelta(t, 3.65, sites[1].PKa(), 1e-9)
		assert.Equal(t, site.NeuOrNeg, sites[2].Behavior)
		assert.InDelta(t, 2.34, sites[2].PKa(), 1e-9)
	})

	t.Run("termini of unknown residues are skipped", func(t *testing.T) {
		sites := reg.Resolve("xDx", true)
		require.Len(t, sites, 1)
	})
}
