// SPDX-License-Identifier: MPL-2.0

// Package preprocess drives documents through the directive pipeline: scan
// the text snapshot, resolve and run each occurrence in source order, then
// splice captured output back in. Replacements are applied against an output
// accumulator using the original scan offsets, so non-directive text survives
// byte-for-byte no matter how replacement lengths drift.
package preprocess
