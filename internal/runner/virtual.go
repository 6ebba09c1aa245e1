// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"ocirun-cli/internal/resolver"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// runVirtual executes an inline command in the embedded POSIX shell
// interpreter. This keeps directive behavior identical on hosts without a
// usable `sh` (notably Windows).
func (r *Runner) runVirtual(ctx context.Context, inv resolver.Invocation) *Result {
	file, err := syntax.NewParser().Parse(strings.NewReader(inv.VirtualScript), "ocirun")
	if err != nil {
		return &Result{
			ExitCode: 1,
			Error:    &ProcessLaunchFailureError{Executable: "virtual shell", Cause: err},
		}
	}

	var stdout bytes.Buffer
	sh, err := interp.New(
		interp.Dir(inv.WorkDir),
		interp.StdIO(nil, &stdout, io.Discard),
		interp.Env(expand.ListEnviron(os.Environ()...)),
	)
	if err != nil {
		return &Result{
			ExitCode: 1,
			Error:    &ProcessLaunchFailureError{Executable: "virtual shell", Cause: err},
		}
	}

	runErr := sh.Run(ctx, file)
	result := &Result{Output: stdout.String()}
	if runErr != nil {
		if status, ok := interp.IsExitStatus(runErr); ok {
			result.ExitCode = int(status)
		} else {
			result.ExitCode = 1
			result.Error = &ProcessLaunchFailureError{Executable: "virtual shell", Cause: runErr}
		}
	}
	return result
}
