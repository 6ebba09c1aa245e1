// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ocirun-cli/internal/platform"
	"ocirun-cli/internal/scanner"
)

const (
	// DefaultImage runs single-token container payloads that name no image.
	DefaultImage = "alpine"

	// containerWorkDir is where snippet sources run inside a container.
	containerWorkDir = "/root"
)

var (
	// ErrUnknownSnippetLanguage is the sentinel error wrapped by UnknownSnippetLanguageError.
	ErrUnknownSnippetLanguage = errors.New("unknown snippet language")
	// ErrMalformedPayload is the sentinel error wrapped by MalformedPayloadError.
	ErrMalformedPayload = errors.New("malformed directive payload")
)

type (
	// UnknownSnippetLanguageError is returned when a snippet's language tag has
	// no registry entry. It wraps ErrUnknownSnippetLanguage for errors.Is().
	UnknownSnippetLanguageError struct {
		Tag   string
		Known []string
	}

	// MalformedPayloadError is returned when a directive resolves to an empty
	// command. It wraps ErrMalformedPayload for errors.Is().
	MalformedPayloadError struct {
		Kind scanner.Kind
	}

	// Invocation is a concrete, ready-to-launch command description. Exactly
	// one of three shapes is produced: host shell command, containerized
	// command, or snippet-template command (host or container).
	Invocation struct {
		// Executable and Args form the command line. For container
		// invocations they are the in-container command.
		Executable string
		Args       []string
		// WorkDir is the child process working directory (host side).
		WorkDir string
		// Image dispatches the invocation through the container engine when
		// non-empty.
		Image string
		// Volumes are host:container bind mounts for container invocations.
		Volumes []string
		// VirtualScript runs through the embedded shell interpreter instead
		// of Executable when non-empty.
		VirtualScript string
	}

	// Options configure invocation resolution; the zero value resolves inline
	// commands into containers with the platform default shell.
	Options struct {
		// HostInline runs inline commands directly on the host shell instead
		// of wrapping them in a container.
		HostInline bool
		// VirtualShell resolves host inline commands to the embedded mvdan/sh
		// interpreter instead of a system shell.
		VirtualShell bool
		// Shell overrides the platform command interpreter.
		Shell platform.Shell
	}

	// Resolver resolves occurrences against an immutable language registry.
	Resolver struct {
		registry Registry
		opts     Options
		shell    platform.Shell
	}
)

func (e *UnknownSnippetLanguageError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown snippet language %q (no languages registered)", e.Tag)
	}
	return fmt.Sprintf("unknown snippet language %q (registered: %s)", e.Tag, strings.Join(e.Known, ", "))
}

func (e *UnknownSnippetLanguageError) Unwrap() error { return ErrUnknownSnippetLanguage }

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("empty command in %s directive", e.Kind)
}

func (e *MalformedPayloadError) Unwrap() error { return ErrMalformedPayload }

// New creates a resolver over the given registry.
func New(registry Registry, opts Options) *Resolver {
	shell := opts.Shell
	if shell.Command == "" {
		shell = platform.DefaultShell()
	}
	return &Resolver{registry: registry, opts: opts, shell: shell}
}

// Resolve produces the invocation for one occurrence. Snippet bodies are
// materialized to a collision-free temporary file as a side effect; callers
// own cleanup via the returned invocation's source path inside Args.
func (r *Resolver) Resolve(occ scanner.Occurrence) (Invocation, error) {
	switch occ.Kind {
	case scanner.KindSnippetBlock:
		return r.resolveSnippet(occ)
	default:
		return r.resolveInline(occ)
	}
}

// resolveInline resolves a command marker. In host mode the payload is passed
// verbatim to the shell, which owns token splitting. In container mode the
// first whitespace-separated token names the image and the remainder runs
// through the in-container shell; a single-token payload runs whole under the
// default image.
func (r *Resolver) resolveInline(occ scanner.Occurrence) (Invocation, error) {
	payload := strings.TrimSpace(occ.Payload)
	if payload == "" {
		return Invocation{}, &MalformedPayloadError{Kind: occ.Kind}
	}

	if r.opts.HostInline {
		if r.opts.VirtualShell {
			return Invocation{VirtualScript: payload, WorkDir: occ.WorkDir}, nil
		}
		return Invocation{
			Executable: r.shell.Command,
			Args:       []string{r.shell.Flag, payload},
			WorkDir:    occ.WorkDir,
		}, nil
	}

	image, command := DefaultImage, payload
	if img, rest, found := strings.Cut(payload, " "); found {
		image, command = img, strings.TrimSpace(rest)
	}
	if command == "" {
		return Invocation{}, &MalformedPayloadError{Kind: occ.Kind}
	}

	absDir, err := filepath.Abs(occ.WorkDir)
	if err != nil {
		return Invocation{}, fmt.Errorf("resolve working directory %q: %w", occ.WorkDir, err)
	}

	sh := platform.ContainerShell()
	return Invocation{
		Executable: sh.Command,
		Args:       []string{sh.Flag, command},
		WorkDir:    absDir,
		Image:      image,
		Volumes:    []string{absDir + ":" + absDir},
	}, nil
}

// resolveSnippet looks the language tag up in the registry, materializes the
// body, and substitutes the source path into the command template.
func (r *Resolver) resolveSnippet(occ scanner.Occurrence) (Invocation, error) {
	entry, ok := r.registry.Lookup(occ.LangTag)
	if !ok {
		return Invocation{}, &UnknownSnippetLanguageError{Tag: occ.LangTag, Known: r.registry.Tags()}
	}
	if len(entry.Command) == 0 {
		return Invocation{}, &MalformedPayloadError{Kind: occ.Kind}
	}

	srcPath, err := MaterializeSource(occ.Payload)
	if err != nil {
		return Invocation{}, err
	}

	command := make([]string, len(entry.Command))
	for i, tok := range entry.Command {
		command[i] = strings.ReplaceAll(tok, PathPlaceholder, srcPath)
	}

	inv := Invocation{
		Executable: command[0],
		Args:       command[1:],
		WorkDir:    occ.WorkDir,
	}
	if entry.Image != "" {
		absDir, err := filepath.Abs(occ.WorkDir)
		if err != nil {
			return Invocation{}, fmt.Errorf("resolve working directory %q: %w", occ.WorkDir, err)
		}
		inv.Image = entry.Image
		inv.WorkDir = containerWorkDir
		inv.Volumes = []string{
			absDir + ":" + containerWorkDir,
			filepath.Dir(srcPath) + ":" + filepath.Dir(srcPath),
		}
	}
	return inv, nil
}
