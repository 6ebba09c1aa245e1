// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"sort"

	"golang.org/x/exp/maps"
)

// PathPlaceholder is the command-template token replaced with the
// materialized snippet source path. A token may embed it, e.g. "run {path}".
const PathPlaceholder = "{path}"

type (
	// LangEntry is one registered snippet language: an optional container
	// image (absent means host execution) and a command template with a
	// source-path placeholder.
	LangEntry struct {
		// Tag is the fence language tag this entry answers for.
		Tag string
		// Image is the container image to run in; empty runs on the host.
		Image string
		// Command is the execution template. Exactly one token contains
		// PathPlaceholder.
		Command []string
	}

	// Registry maps snippet language tags to execution templates. It is
	// built once from configuration and read-only afterward; pass it by
	// value into resolvers so concurrent document passes can share it.
	Registry struct {
		entries map[string]LangEntry
	}
)

// NewRegistry builds a registry from configured entries. Duplicate tags are
// resolved last-registered-wins.
func NewRegistry(entries []LangEntry) Registry {
	m := make(map[string]LangEntry, len(entries))
	for _, e := range entries {
		m[e.Tag] = e
	}
	return Registry{entries: m}
}

// Lookup returns the entry for a language tag.
func (r Registry) Lookup(tag string) (LangEntry, bool) {
	e, ok := r.entries[tag]
	return e, ok
}

// Tags returns all registered language tags, sorted.
func (r Registry) Tags() []string {
	tags := maps.Keys(r.entries)
	sort.Strings(tags)
	return tags
}

// Len returns the number of registered languages.
func (r Registry) Len() int {
	return len(r.entries)
}
