// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestBaseCLIEngine_RunArgs(t *testing.T) {
	engine := NewBaseCLIEngine("docker", "/usr/bin/docker")

	tests := []struct {
		name     string
		opts     RunOptions
		expected []string
	}{
		{
			name: "minimal run",
			opts: RunOptions{
				Image:   "alpine",
				Command: []string{"sh", "-c", "date"},
			},
			expected: []string{"run", "alpine", "sh", "-c", "date"},
		},
		{
			name: "with remove",
			opts: RunOptions{
				Image:   "alpine",
				Command: []string{"true"},
				Remove:  true,
			},
			expected: []string{"run", "--rm", "alpine", "true"},
		},
		{
			name: "with workdir",
			opts: RunOptions{
				Image:   "alpine",
				Command: []string{"pwd"},
				WorkDir: "/book/src",
			},
			expected: []string{"run", "-w", "/book/src", "alpine", "pwd"},
		},
		{
			name: "with volumes",
			opts: RunOptions{
				Image:   "alpine",
				Command: []string{"ls"},
				Volumes: []string{"/a:/a", "/b:/c"},
			},
			expected: []string{"run", "-v", "/a:/a", "-v", "/b:/c", "alpine", "ls"},
		},
		{
			name: "all options",
			opts: RunOptions{
				Image:   "python:3-slim",
				Command: []string{"python3", "/tmp/ocirun-abc"},
				WorkDir: "/root",
				Volumes: []string{"/book/src:/root"},
				Remove:  true,
			},
			expected: []string{"run", "--rm", "-w", "/root", "-v", "/book/src:/root", "python:3-slim", "python3", "/tmp/ocirun-abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := engine.RunArgs(tt.opts)

			if len(args) != len(tt.expected) {
				t.Fatalf("got %d args, want %d\ngot:  %v\nwant: %v", len(args), len(tt.expected), args, tt.expected)
			}
			for i, exp := range tt.expected {
				if args[i] != exp {
					t.Errorf("args[%d] = %q, want %q", i, args[i], exp)
				}
			}
		})
	}
}

func TestBaseCLIEngine_RunArgsTransformer(t *testing.T) {
	engine := NewBaseCLIEngine("podman", "/usr/bin/podman",
		WithRunArgsTransformer(func(args []string) []string {
			return append([]string{args[0], "--userns=keep-id"}, args[1:]...)
		}))

	args := engine.RunArgs(RunOptions{Image: "alpine", Command: []string{"true"}})
	if len(args) < 2 || args[1] != "--userns=keep-id" {
		t.Errorf("transformer not applied, args = %v", args)
	}
}

func TestBaseCLIEngine_VolumeFormatter(t *testing.T) {
	engine := NewBaseCLIEngine("podman", "/usr/bin/podman",
		WithVolumeFormatter(func(v string) string { return v + ":z" }))

	args := engine.RunArgs(RunOptions{
		Image:   "alpine",
		Command: []string{"true"},
		Volumes: []string{"/a:/a"},
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "/a:/a:z") {
		t.Errorf("volume formatter not applied, args = %v", args)
	}
}

func TestBaseCLIEngine_Run_Success(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.Stdout = "container output\n"

	engine := NewBaseCLIEngine("docker", "/usr/bin/docker",
		WithExecCommand(recorder.CommandFunc(t)))

	var stdout bytes.Buffer
	result, err := engine.Run(context.Background(), RunOptions{
		Image:   "alpine",
		Command: []string{"sh", "-c", "echo container output"},
		Remove:  true,
		Stdout:  &stdout,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if stdout.String() != "container output\n" {
		t.Errorf("stdout = %q", stdout.String())
	}

	recorder.AssertInvocationCount(t, 1)
	recorder.AssertCommandName(t, "/usr/bin/docker")
	recorder.AssertArgsContain(t, "run")
	recorder.AssertArgsContain(t, "--rm")
	recorder.AssertArgsContain(t, "alpine")
}

func TestBaseCLIEngine_Run_NonZeroExitIsNotError(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 5

	engine := NewBaseCLIEngine("docker", "/usr/bin/docker",
		WithExecCommand(recorder.CommandFunc(t)))

	result, err := engine.Run(context.Background(), RunOptions{
		Image:   "alpine",
		Command: []string{"false"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, non-zero exit should not be an error", err)
	}
	if result.ExitCode != 5 {
		t.Errorf("ExitCode = %d, want 5", result.ExitCode)
	}
}

func TestBaseCLIEngine_Run_LaunchFailure(t *testing.T) {
	engine := NewBaseCLIEngine("docker", "/nonexistent/docker-binary")

	result, err := engine.Run(context.Background(), RunOptions{
		Image:   "alpine",
		Command: []string{"true"},
	})
	if err == nil {
		t.Fatal("Run() should fail when the binary does not exist")
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

func TestBaseCLIEngine_RunCommandWithOutput(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.Stdout = "4.9.0"

	engine := NewBaseCLIEngine("podman", "/usr/bin/podman",
		WithExecCommand(recorder.CommandFunc(t)))

	out, err := engine.RunCommandWithOutput(context.Background(), "version", "--format", "{{.Version}}")
	if err != nil {
		t.Fatalf("RunCommandWithOutput() error = %v", err)
	}
	if out != "4.9.0" {
		t.Errorf("output = %q, want 4.9.0", out)
	}
	recorder.AssertArgsContain(t, "version")
}

func TestBaseCLIEngine_Accessors(t *testing.T) {
	engine := NewBaseCLIEngine("docker", "/usr/bin/docker")
	if engine.Name() != "docker" {
		t.Errorf("Name() = %q", engine.Name())
	}
	if engine.BinaryPath() != "/usr/bin/docker" {
		t.Errorf("BinaryPath() = %q", engine.BinaryPath())
	}
}
