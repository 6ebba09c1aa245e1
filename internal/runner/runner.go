// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"

	"ocirun-cli/internal/container"
	"ocirun-cli/internal/resolver"
)

// ExecCommandFunc is the function signature for creating exec.Cmd.
// This allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Runner executes invocations synchronously. A nil engine is valid until the
// first container invocation, which then fails as a launch failure rather
// than a panic, so host-only documents work without any container runtime.
type Runner struct {
	engine      container.Engine
	execCommand ExecCommandFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecCommand sets a custom command factory. Tests inject a recorder here.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// New creates a runner. engine may be nil when no directive uses containers.
func New(engine container.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:      engine,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one invocation and captures its stdout. The child gets no
// stdin and its stderr is discarded. The call blocks until the child exits;
// callers that need a bound wrap ctx with a timeout.
func (r *Runner) Run(ctx context.Context, inv resolver.Invocation) *Result {
	switch {
	case inv.VirtualScript != "":
		return r.runVirtual(ctx, inv)
	case inv.Image != "":
		return r.runContainer(ctx, inv)
	default:
		return r.runHost(ctx, inv)
	}
}

func (r *Runner) runHost(ctx context.Context, inv resolver.Invocation) *Result {
	cmd := r.execCommand(ctx, inv.Executable, inv.Args...)
	cmd.Dir = inv.WorkDir
	cmd.Stdin = nil

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	err := cmd.Run()
	result := &Result{Output: stdout.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = &ProcessLaunchFailureError{Executable: inv.Executable, Cause: err}
		}
	}
	return result
}

func (r *Runner) runContainer(ctx context.Context, inv resolver.Invocation) *Result {
	if r.engine == nil {
		return &Result{
			ExitCode: 1,
			Error: &ProcessLaunchFailureError{
				Executable: inv.Image,
				Cause:      &container.ErrEngineNotAvailable{Engine: "any", Reason: "no container engine configured"},
			},
		}
	}

	var stdout bytes.Buffer
	runResult, err := r.engine.Run(ctx, container.RunOptions{
		Image:   inv.Image,
		Command: append([]string{inv.Executable}, inv.Args...),
		WorkDir: inv.WorkDir,
		Volumes: inv.Volumes,
		Remove:  true,
		Stdout:  &stdout,
		Stderr:  io.Discard,
	})

	result := &Result{Output: stdout.String()}
	if err != nil {
		result.ExitCode = 1
		result.Error = &ProcessLaunchFailureError{Executable: inv.Image, Cause: err}
		return result
	}
	result.ExitCode = runResult.ExitCode
	return result
}
