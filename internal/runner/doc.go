// SPDX-License-Identifier: MPL-2.0

// Package runner executes resolved invocations as child processes: no stdin,
// stdout captured in full, stderr discarded. A non-zero exit is an outcome,
// not an error; only a failure to launch at all is surfaced as one.
// Container invocations dispatch through the container engine, and inline
// commands can alternatively run in the embedded mvdan/sh interpreter.
package runner
