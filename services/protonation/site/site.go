// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package site defines the ionisable site model shared by the solver,
// the registry and the HTTP layer.
//
// A Site is an immutable value: a dissociation constant (Ka = 10^-pKa) and a
// ChargeBehavior that fixes the two integer charges the site can carry.
package site

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidLiteral is returned when a "<behavior>,<pKa>" literal cannot be parsed.
var ErrInvalidLiteral = errors.New("invalid site literal")

// ErrUnknownBehavior is returned when a charge behavior token is not recognised.
var ErrUnknownBehavior = errors.New("unknown charge behavior")

// ChargeBehavior is the charge-transition rule of a site.
type ChargeBehavior int

const (
	// PosOrNeu sites carry +1 at low pH and 0 at high pH (e.g. amines).
	PosOrNeu ChargeBehavior = iota

	// NeuOrNeg sites carry 0 at low pH and -1 at high pH (e.g. carboxylic acids).
	NeuOrNeg
)

// ParseChargeBehavior parses the wire name of a charge behavior.
//
// The accepted tokens are exactly "PosOrNeu" and "NeuOrNeg".
func ParseChargeBehavior(s string) (ChargeBehavior, error) {
	switch s {
	case "PosOrNeu":
		return PosOrNeu, nil
	case "NeuOrNeg":
		return NeuOrNeg, nil
	default:
		return 0, fmt.Errorf("%w: unable to deserialize %q", ErrUnknownBehavior, s)
	}
}

// String returns the wire name of the behavior.
func (b ChargeBehavior) String() string {
	switch b {
	case PosOrNeu:
		return "PosOrNeu"
	case NeuOrNeg:
		return "NeuOrNeg"
	default:
		return "unknown"
	}
}

// Charges returns the (lowPH, highPH) charge pair for the behavior.
func (b ChargeBehavior) Charges() (low, high int) {
	if b == PosOrNeu {
		return 1, 0
	}
	return 0, -1
}

// MarshalText implements encoding.TextMarshaler.
func (b ChargeBehavior) MarshalText() ([]byte, error) {
	if b != PosOrNeu && b != NeuOrNeg {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBehavior, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ChargeBehavior) UnmarshalText(text []byte) error {
	parsed, err := ParseChargeBehavior(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Site is one ionisable group.
//
// Ka is the acid dissociation constant (10^-pKa). It is strictly positive
// and finite for every Site produced by this package.
type Site struct {
	Ka       float64        `json:"ka"`
	Behavior ChargeBehavior `json:"behavior"`
}

// FromPKa builds a Site from a pKa value.
func FromPKa(pka float64, behavior ChargeBehavior) (Site, error) {
	if math.IsNaN(pka) || math.IsInf(pka, 0) {
		return Site{}, fmt.Errorf("%w: pKa %v is not finite", ErrInvalidLiteral, pka)
	}
	ka := math.Pow(10, -pka)
	if ka <= 0 || math.IsInf(ka, 0) {
		return Site{}, fmt.Errorf("%w: pKa %v yields a degenerate Ka", ErrInvalidLiteral, pka)
	}
	return Site{Ka: ka, Behavior: behavior}, nil
}

// PKa returns -log10(Ka).
func (s Site) PKa() float64 {
	return -math.Log10(s.Ka)
}

// Charges returns the (lowPH, highPH) charge pair of the site.
func (s Site) Charges() (low, high int) {
	return s.Behavior.Charges()
}

// ParseLiteral parses a "<behavior>,<pKa>" literal such as "NeuOrNeg, 4.0".
//
// Fields are trimmed. The returned error wraps ErrInvalidLiteral and names
// the offending literal.
func ParseLiteral(literal string) (Site, error) {
	fields := strings.Split(literal, ",")
	if len(fields) != 2 {
		return Site{}, fmt.Errorf("%w: unable to parse %q, expected two comma separated elements", ErrInvalidLiteral, literal)
	}

	behavior, err := ParseChargeBehavior(strings.TrimSpace(fields[0]))
	if err != nil {
		return Site{}, fmt.Errorf("%w: unable to parse %q, first element is not a charge behavior", ErrInvalidLiteral, literal)
	}

	pka, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Site{}, fmt.Errorf("%w: unable to parse %q, second element is not a valid number", ErrInvalidLiteral, literal)
	}

	s, err := FromPKa(pka, behavior)
	if err != nil {
		return Site{}, fmt.Errorf("unable to parse %q: %w", literal, err)
	}
	return s, nil
}

// ParseLiterals parses every literal and collects all failures.
//
// Either all literals parse and the sites are returned in input order, or
// the joined error lists one message per failing literal.
func ParseLiterals(literals []string) ([]Site, error) {
	sites := make([]Site, 0, len(literals))
	var errs []error
	for _, literal := range literals {
		s, err := ParseLiteral(literal)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sites = append(sites, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sites, nil
}

// Literal renders the site back into its "<behavior>,<pKa>" form.
func (s Site) Literal() string {
	return s.Behavior.String() + "," + strconv.FormatFloat(s.PKa(), 'f', -1, 64)
}
