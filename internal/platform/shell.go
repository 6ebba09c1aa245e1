// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities: the
// command interpreter convention for the host OS and output line-ending
// normalization.
package platform

import (
	"runtime"
	"strings"
)

// Windows is the GOOS value for Windows targets.
const Windows = "windows"

// Shell is a command interpreter invocation: the binary plus the flag that
// takes a whole command line as a single argument.
type Shell struct {
	Command string
	Flag    string
}

// DefaultShell returns the platform command interpreter: `sh -c` on
// POSIX-like targets, `cmd /C` on Windows.
func DefaultShell() Shell {
	if runtime.GOOS == Windows {
		return Shell{Command: "cmd", Flag: "/C"}
	}
	return Shell{Command: "sh", Flag: "-c"}
}

// ContainerShell returns the interpreter used inside containers. Images are
// Linux regardless of the host, so this is always `sh -c`.
func ContainerShell() Shell {
	return Shell{Command: "sh", Flag: "-c"}
}

// NormalizeNewlines rewrites CRLF line endings to LF. Command output is
// normalized before substitution so documents stay byte-stable across
// platforms.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
