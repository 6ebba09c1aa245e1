// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates decoded configuration against an embedded CUE
// schema. Configuration arrives as a Go map (viper or the host's book.toml
// table), is encoded into CUE, unified with the schema definition, and
// validated; schema violations fail the whole run before any document is
// processed.
package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ValidateAgainstSchema unifies a decoded configuration map with the named
// definition in the schema source and validates the result.
func ValidateAgainstSchema(schema, schemaPath, source string, config map[string]any) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	unified := root.Unify(ctx.Encode(config))
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return FormatError(err, source)
	}
	return nil
}

// FormatError formats a CUE error with field path prefixes.
//
// Error format: <source>: <path>: <message>
func FormatError(err error, source string) error {
	if err == nil {
		return nil
	}

	cueErrors := cueerrors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", source, err)
	}

	var lines []string
	for _, e := range cueErrors {
		pathStr := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		// CUE sometimes repeats the path inside the message itself.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", source, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", source, strings.Join(lines, "\n  "))
}
