// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
)

// ErrProcessLaunchFailure is the sentinel error wrapped by ProcessLaunchFailureError.
var ErrProcessLaunchFailure = errors.New("process launch failure")

type (
	// Result is the outcome of one invocation: whatever stdout was produced,
	// plus the exit status. Output is valid even when the exit code is
	// non-zero (partial output before a failure still substitutes).
	Result struct {
		ExitCode int
		Output   string
		// Error is set only when the process could not be launched at all.
		Error error
	}

	// ProcessLaunchFailureError is returned when the executable or container
	// engine could not be started. It wraps ErrProcessLaunchFailure.
	ProcessLaunchFailureError struct {
		Executable string
		Cause      error
	}
)

// Succeeded reports a clean zero-exit run.
func (r *Result) Succeeded() bool {
	return r.Error == nil && r.ExitCode == 0
}

func (e *ProcessLaunchFailureError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Executable, e.Cause)
}

func (e *ProcessLaunchFailureError) Unwrap() error { return ErrProcessLaunchFailure }
