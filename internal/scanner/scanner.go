// SPDX-License-Identifier: MPL-2.0

package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// KindInlineCommand is a single-line `<!-- ocirun ... -->` marker.
	KindInlineCommand Kind = "inline-command"
	// KindSnippetBlock is a fenced code block tagged for execution.
	KindSnippetBlock Kind = "snippet-block"

	// ExecFlag marks a fenced block for execution when present in its
	// comma-separated flag list.
	ExecFlag = "ocirun"

	// ResultTag is the language tag of synthetic result blocks.
	ResultTag = "console"
	// ResultFlagSuccess tags a result block for a zero-exit run.
	ResultFlagSuccess = "success"
	// ResultFlagFailure tags a result block for a failed run.
	ResultFlagFailure = "failure"
)

var (
	// inlineMarker matches one command marker. Whether the trailing newline
	// belongs to the span is decided per match, so adjacent markers on one
	// line each stay a separate occurrence.
	inlineMarker = regexp.MustCompile(`<!--[ ]*ocirun (.*?)-->`)

	// fenceLine matches a code fence delimiter line with its flag list.
	fenceLine = regexp.MustCompile("(?m)^```(.*)$")
)

type (
	// Kind discriminates the two marker grammars.
	Kind string

	// Span is a half-open byte range into the scanned snapshot.
	Span struct {
		Start int
		End   int
	}

	// Occurrence is one located directive. Immutable once produced; offsets
	// are only valid against the text snapshot that was scanned.
	Occurrence struct {
		Kind    Kind
		Span    Span
		Payload string
		// LangTag is the declared snippet language (first fence flag).
		LangTag string
		// Flags is the full fence flag list for snippet blocks.
		Flags []string
		// TrailingNewline reports that the span consumed the newline after an
		// inline marker, so the directive vanishes without leaving a blank line.
		TrailingNewline bool
		// ResultSpan covers a result block left behind by a previous run
		// immediately after a snippet block. Zero when absent; the engine
		// replaces it instead of appending a duplicate.
		ResultSpan Span
		// WorkDir is the directory commands for this occurrence run in.
		WorkDir string
	}

	// Warning reports a malformed or skipped marker. Warnings are non-fatal;
	// the occurrence is simply not produced.
	Warning struct {
		Offset  int
		Message string
	}

	fencedBlock struct {
		span     Span
		bodySpan Span
		flags    []string
	}
)

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool { return s.Start == s.End }

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
}

// isResultBlock reports whether the flag list names a synthetic result block
// from a previous run. The sentinel is the exact tag pair, not a content
// heuristic, so user-authored console blocks are left alone.
func isResultBlock(flags []string) bool {
	if len(flags) != 2 || flags[0] != ResultTag {
		return false
	}
	return flags[1] == ResultFlagSuccess || flags[1] == ResultFlagFailure
}

// Scan walks one text snapshot and returns all directive occurrences in
// source order, plus warnings for markers that were skipped. Each call scans
// from scratch; occurrences must be consumed against the same snapshot.
func Scan(text, workDir string) ([]Occurrence, []Warning) {
	blocks, warnings := scanFences(text)

	var occs []Occurrence
	for i, blk := range blocks {
		if !containsFlag(blk.flags, ExecFlag) {
			continue
		}
		if isResultBlock(blk.flags) {
			// "console,success,ocirun" would be ambiguous; never executed.
			continue
		}
		occ := Occurrence{
			Kind:    KindSnippetBlock,
			Span:    blk.span,
			Payload: text[blk.bodySpan.Start:blk.bodySpan.End],
			LangTag: blk.flags[0],
			Flags:   blk.flags,
			WorkDir: workDir,
		}
		if rs, ok := adjacentResultSpan(text, blocks, i); ok {
			occ.ResultSpan = rs
		}
		occs = append(occs, occ)
	}

	for _, m := range inlineMarker.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if inFence(blocks, start) {
			warnings = append(warnings, Warning{
				Offset:  start,
				Message: "command marker inside a fenced block is not executed",
			})
			continue
		}
		occ := Occurrence{
			Kind:    KindInlineCommand,
			Span:    Span{Start: start, End: end},
			Payload: strings.TrimSpace(text[m[2]:m[3]]),
			WorkDir: workDir,
		}
		// The newline right after the marker is part of the match, so a
		// directive on its own line vanishes rather than leaving a blank one.
		if rest := text[end:]; strings.HasPrefix(rest, "\r\n") {
			occ.Span.End += 2
			occ.TrailingNewline = true
		} else if strings.HasPrefix(rest, "\n") {
			occ.Span.End++
			occ.TrailingNewline = true
		}
		occs = append(occs, occ)
	}

	sortBySpan(occs)
	return occs, warnings
}

// scanFences pairs fence delimiter lines into blocks. An unpaired trailing
// fence is reported as a warning and ignored.
func scanFences(text string) ([]fencedBlock, []Warning) {
	matches := fenceLine.FindAllStringSubmatchIndex(text, -1)

	var (
		blocks   []fencedBlock
		warnings []Warning
	)
	for i := 0; i+1 < len(matches); i += 2 {
		open, closing := matches[i], matches[i+1]

		flagText := text[open[2]:open[3]]
		flags := strings.Split(strings.TrimRight(flagText, "\r"), ",")

		bodyStart := open[1]
		if bodyStart < len(text) && text[bodyStart] == '\r' {
			bodyStart++
		}
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}

		blocks = append(blocks, fencedBlock{
			span:     Span{Start: open[0], End: closing[1]},
			bodySpan: Span{Start: bodyStart, End: closing[0]},
			flags:    flags,
		})
	}
	if len(matches)%2 != 0 {
		last := matches[len(matches)-1]
		warnings = append(warnings, Warning{
			Offset:  last[0],
			Message: "unterminated code fence",
		})
	}
	return blocks, warnings
}

// adjacentResultSpan returns the span from the end of block i through the end
// of the next block, when the next block is a result block separated only by
// one newline. That whole region is owned by the directive on re-runs.
func adjacentResultSpan(text string, blocks []fencedBlock, i int) (Span, bool) {
	if i+1 >= len(blocks) {
		return Span{}, false
	}
	next := blocks[i+1]
	if !isResultBlock(next.flags) {
		return Span{}, false
	}
	gap := text[blocks[i].span.End:next.span.Start]
	if gap != "\n" && gap != "\r\n" {
		return Span{}, false
	}
	return Span{Start: blocks[i].span.End, End: next.span.End}, true
}

func inFence(blocks []fencedBlock, offset int) bool {
	for _, blk := range blocks {
		if offset >= blk.span.Start && offset < blk.span.End {
			return true
		}
	}
	return false
}

func containsFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func sortBySpan(occs []Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].Span.Start < occs[j].Span.Start
	})
}
