// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load configuration"},
			want: "failed to load configuration",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load configuration", Resource: "book.toml"},
			want: "failed to load configuration: book.toml",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "book.toml",
				Cause:     errors.New("permission denied"),
			},
			want: "failed to load configuration: book.toml: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("root cause")
	err := NewErrorContext().
		WithOperation("validate configuration").
		Wrap(fmt.Errorf("wrapped: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find the ActionableError")
	}
	if ae.Operation != "validate configuration" {
		t.Errorf("Operation = %q", ae.Operation)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("load configuration").
		WithResource("book.toml").
		WithSuggestion("Check the table keys").
		WithSuggestion("Verify the TOML syntax").
		Wrap(fmt.Errorf("outer: %w", errors.New("inner"))).
		Build()

	plain := err.Format(false)
	if !strings.Contains(plain, "• Check the table keys") {
		t.Errorf("Format(false) = %q, want bulleted suggestions", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) = %q, want error chain", verbose)
	}
	if !strings.Contains(verbose, "1. outer: inner") || !strings.Contains(verbose, "2. inner") {
		t.Errorf("Format(true) = %q, want numbered unwrapped causes", verbose)
	}
}

func TestErrorContext_BuildEmpty(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("do a thing").Build()
	if err.Resource != "" || err.Cause != nil || len(err.Suggestions) != 0 {
		t.Errorf("Build() = %+v, want only operation set", err)
	}
}
