// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates ocirun configuration: the container
// engine preference, inline execution mode, shell selection, the snippet
// result cache, and the snippet language table. Configuration comes from the
// host's book.toml [preprocessor.ocirun] table (or the same table passed
// in-band over the preprocessor protocol) with OCIRUN_* environment
// overrides; the decoded result is validated against an embedded CUE schema
// before any document is processed.
package config
