// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"fmt"
	"strings"

	"ocirun-cli/internal/platform"
	"ocirun-cli/internal/scanner"
)

// formatInlineOutput prepares captured stdout for substitution in place of a
// command marker. Markers embedded mid-line (no trailing newline consumed)
// get trailing whitespace trimmed so table cells and emphasis don't pick up
// stray newlines; full-line markers keep output as produced.
func formatInlineOutput(out string, trailingNewline bool) string {
	out = platform.NormalizeNewlines(out)
	if !trailingNewline {
		return strings.TrimRight(out, " \t\r\n")
	}
	return out
}

// resultBlock renders the synthetic fenced block appended after a snippet.
// The tag pair is the idempotence sentinel the scanner recognizes on re-runs.
func resultBlock(out string, succeeded bool) string {
	out = platform.NormalizeNewlines(out)
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	flag := scanner.ResultFlagSuccess
	if !succeeded {
		flag = scanner.ResultFlagFailure
	}
	return fmt.Sprintf("\n```%s,%s\n%s```", scanner.ResultTag, flag, out)
}
