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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/protonation/services/protonation/site"
)

const (
	// MaxDefinitionSize is the largest registry file accepted (1MB).
	MaxDefinitionSize = 1024 * 1024

	// CTerminalPrefix keys the C-terminal carboxyl site of a residue.
	CTerminalPrefix = "CT-"

	// NTerminalPrefix keys the N-terminal amine site of a residue.
	NTerminalPrefix = "NT-"
)

// ParseFile reads and parses a registry definition file.
func ParseFile(path string) (*Registry, error) {
	data, err := readDefinition(path)
	if err != nil {
		return nil, &BuildError{
			Line:    LineNone,
			Message: fmt.Sprintf("Error during reading the config file! Message:\n%s", err),
			Err:     err,
		}
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	reg.source = path
	return reg, nil
}

func readDefinition(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxDefinitionSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDefinitionSize {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxDefinitionSize)
	}
	return data, nil
}

// Parse builds a Registry from definition text.
//
// # Description
//
// One entry per line. Empty lines and lines starting with '#' are skipped
// but still count toward line indices. Two entry forms are accepted:
//
//	NAME: ct_pKa, nt_pKa
//	NAME: ct_pKa, nt_pKa, side_pKa, BEHAVIOR
//
// The first form defines CT-NAME (NeuOrNeg) and NT-NAME (PosOrNeu). The
// second additionally defines NAME with the side-chain pKa and BEHAVIOR.
//
// # Outputs
//
//   - *Registry: The parsed registry.
//   - error: The first *BuildError encountered. Parsing stops there.
func Parse(data []byte) (*Registry, error) {
	sites := make(map[string]site.Site)
	valid := 0

	for idx, line := range strings.Split(normalizeNewlines(string(data)), "\n") {
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		valid++
		if err := parseLine(sites, idx, line); err != nil {
			return nil, err
		}
	}

	if valid == 0 {
		return nil, &BuildError{Line: LineNone, Message: "The config file does not contain any valid lines!"}
	}

	return &Registry{sites: sites, source: SourceInline, loadedAt: time.Now().UTC()}, nil
}

func parseLine(sites map[string]site.Site, idx int, line string) error {
	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return lineError(idx, "Invalid line syntax at line index %d (line value: \"%s\")", idx, line)
	}

	name := strings.TrimSpace(parts[0])
	values := strings.Split(parts[1], ",")
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}

	switch len(values) {
	case 2:
		pkas, err := parsePKas(values, idx, line)
		if err != nil {
			return err
		}
		return insertTermini(sites, name, pkas, idx)

	case 4:
		behavior, err := site.ParseChargeBehavior(values[3])
		if err != nil {
			return lineError(idx, "Invalid group charge option at line index %d (line value: \"%s\")", idx, values[3])
		}
		pkas, err := parsePKas(values[:3], idx, line)
		if err != nil {
			return err
		}
		if err := insertTermini(sites, name, pkas, idx); err != nil {
			return err
		}
		return insert(sites, name, site.Site{Ka: pkas[2], Behavior: behavior}, idx)

	default:
		return lineError(idx, "Invalid number of group values at line index %d (line value: \"%s\")", idx, line)
	}
}

// parsePKas converts pKa fields into dissociation constants.
func parsePKas(values []string, idx int, line string) ([]float64, error) {
	kas := make([]float64, 0, len(values))
	for _, v := range values {
		pka, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, lineError(idx, "Parsing to float failed at line index %d (line value: \"%s\")", idx, line)
		}
		s, err := site.FromPKa(pka, site.NeuOrNeg)
		if err != nil {
			return nil, lineError(idx, "Parsing to float failed at line index %d (line value: \"%s\")", idx, line)
		}
		kas = append(kas, s.Ka)
	}
	return kas, nil
}

func insertTermini(sites map[string]site.Site, name string, kas []float64, idx int) error {
	if err := insert(sites, CTerminalPrefix+name, site.Site{Ka: kas[0], Behavior: site.NeuOrNeg}, idx); err != nil {
		return err
	}
	return insert(sites, NTerminalPrefix+name, site.Site{Ka: kas[1], Behavior: site.PosOrNeu}, idx)
}

func insert(sites map[string]site.Site, key string, s site.Site, idx int) error {
	if _, exists := sites[key]; exists {
		return lineError(idx, "Key %s already exists at line index %d!", key, idx)
	}
	sites[key] = s
	return nil
}

// normalizeNewlines folds CRLF line endings so indices match the raw lines.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
