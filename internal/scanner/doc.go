// SPDX-License-Identifier: MPL-2.0

// Package scanner locates directive occurrences in document text: single-line
// command markers and fenced snippet blocks tagged for execution. It yields
// occurrences in source order with byte spans against the scanned snapshot;
// it never mutates the text. Blocks produced by a previous run are recognized
// by their sentinel tag and skipped so re-scanning is idempotent.
package scanner
