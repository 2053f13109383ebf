// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry maps site names to ionisable sites.
//
// A Registry is parsed once from a line-oriented definition and never
// mutated. The Store holds the registry currently in use and swaps it
// atomically on an explicit Reload; the optional Watcher triggers Reload
// when the definition file changes on disk.
//
// Thread Safety:
//
//	Registry is immutable. Store and Watcher are safe for concurrent use.
package registry

import (
	_ "embed"
	"sort"
	"time"

	"github.com/AleutianAI/protonation/services/protonation/site"
)

// Source names for registries not loaded from a file.
const (
	SourceEmbedded = "embedded"
	SourceInline   = "inline"
)

//go:embed default_registry.txt
var defaultDefinition []byte

// Default parses the amino acid table compiled into the binary.
func Default() (*Registry, error) {
	reg, err := Parse(defaultDefinition)
	if err != nil {
		return nil, err
	}
	reg.source = SourceEmbedded
	return reg, nil
}

// Registry is an immutable name to site mapping.
type Registry struct {
	sites    map[string]site.Site
	source   string
	loadedAt time.Time
}

// Lookup returns the site registered under key.
func (r *Registry) Lookup(key string) (site.Site, bool) {
	s, ok := r.sites[key]
	return s, ok
}

// Resolve converts a residue sequence into sites.
//
// # Description
//
// Every character of sequence is looked up as a key; characters without an
// entry are skipped. With includeTermini the NT- site of the first character
// is prepended and the CT- site of the last character appended, each only
// when that key exists.
//
// # Outputs
//
//   - []site.Site: Sites in sequence order. Empty, never nil.
func (r *Registry) Resolve(sequence string, includeTermini bool) []site.Site {
	runes := []rune(sequence)
	out := make([]site.Site, 0, len(runes)+2)

	if includeTermini && len(runes) > 0 {
		if s, ok := r.sites[NTerminalPrefix+string(runes[0])]; ok {
			out = append(out, s)
		}
	}

	for _, ch := range runes {
		if s, ok := r.sites[string(ch)]; ok {
			out = append(out, s)
		}
	}

	if includeTermini && len(runes) > 0 {
		if s, ok := r.sites[CTerminalPrefix+string(runes[len(runes)-1])]; ok {
			out = append(out, s)
		}
	}

	return out
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.sites))
	for k := range r.sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered sites.
func (r *Registry) Len() int { return len(r.sites) }

// Source returns the file path the registry was loaded from, or one of
// SourceEmbedded and SourceInline.
func (r *Registry) Source() string { return r.source }

// LoadedAt returns when the registry was parsed (UTC).
func (r *Registry) LoadedAt() time.Time { return r.loadedAt }
