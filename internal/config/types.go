// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"ocirun-cli/internal/resolver"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// InlineModeContainer wraps inline commands in a container; the first
	// payload token names the image.
	InlineModeContainer InlineMode = "container"
	// InlineModeHost passes the whole inline payload to the host shell.
	InlineModeHost InlineMode = "host"

	// ShellModeNative runs host commands in the system shell.
	ShellModeNative ShellMode = "native"
	// ShellModeVirtual runs host commands in the embedded mvdan/sh interpreter.
	ShellModeVirtual ShellMode = "virtual"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidInlineMode is returned when an InlineMode value is not recognized.
	ErrInvalidInlineMode = errors.New("invalid inline mode")
	// ErrInvalidShellMode is returned when a ShellMode value is not recognized.
	ErrInvalidShellMode = errors.New("invalid shell mode")
	// ErrInvalidLang is the sentinel error wrapped by InvalidLangError.
	ErrInvalidLang = errors.New("invalid snippet language entry")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InlineMode specifies how inline command markers execute.
	InlineMode string

	// ShellMode specifies which shell runs host commands.
	ShellMode string

	// InvalidLangError is returned when a snippet language entry is
	// malformed. It wraps ErrInvalidLang for errors.Is() compatibility.
	InvalidLangError struct {
		Index  int
		Name   string
		Reason string
	}

	// Lang is one snippet language table entry as configured.
	Lang struct {
		// Name is the fence language tag.
		Name string `mapstructure:"name"`
		// Image is the container image; empty runs on the host.
		Image string `mapstructure:"image"`
		// Command is the execution template; one token carries the {path}
		// placeholder for the materialized snippet source.
		Command []string `mapstructure:"command"`
	}

	// Cache configures the content-addressed snippet result cache.
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Dir     string `mapstructure:"dir"`
	}

	// Config is the full decoded configuration. It is loaded once per run
	// and read-only afterward.
	Config struct {
		Engine ContainerEngine `mapstructure:"engine"`
		Inline InlineMode      `mapstructure:"inline"`
		Shell  ShellMode       `mapstructure:"shell"`
		Cache  Cache           `mapstructure:"cache"`
		Langs  []Lang          `mapstructure:"lang"`
	}
)

// IsValid reports whether the engine value is recognized.
func (e ContainerEngine) IsValid() error {
	switch e {
	case ContainerEngineDocker, ContainerEnginePodman:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidContainerEngine, string(e))
	}
}

// IsValid reports whether the inline mode value is recognized.
func (m InlineMode) IsValid() error {
	switch m {
	case InlineModeContainer, InlineModeHost:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidInlineMode, string(m))
	}
}

// IsValid reports whether the shell mode value is recognized.
func (m ShellMode) IsValid() error {
	switch m {
	case ShellModeNative, ShellModeVirtual:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidShellMode, string(m))
	}
}

func (e *InvalidLangError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%v %s: %s", ErrInvalidLang, name, e.Reason)
}

func (e *InvalidLangError) Unwrap() error { return ErrInvalidLang }

// Validate checks a language entry. Entries must name a tag and carry a
// command template with exactly one source-path placeholder; malformed
// entries fail the whole run at load time rather than lazily per directive.
func (l Lang) Validate(index int) error {
	if strings.TrimSpace(l.Name) == "" {
		return &InvalidLangError{Index: index, Reason: "name must not be empty"}
	}
	if len(l.Command) == 0 {
		return &InvalidLangError{Index: index, Name: l.Name, Reason: "command template must not be empty"}
	}
	placeholders := 0
	for _, tok := range l.Command {
		placeholders += strings.Count(tok, resolver.PathPlaceholder)
	}
	if placeholders != 1 {
		return &InvalidLangError{
			Index: index,
			Name:  l.Name,
			Reason: fmt.Sprintf("command template must contain the %s placeholder exactly once, found %d",
				resolver.PathPlaceholder, placeholders),
		}
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Engine.IsValid(); err != nil {
		return err
	}
	if err := c.Inline.IsValid(); err != nil {
		return err
	}
	if err := c.Shell.IsValid(); err != nil {
		return err
	}
	for i, lang := range c.Langs {
		if err := lang.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// Registry builds the immutable snippet language registry from the
// configured table. Duplicate tags resolve last-registered-wins.
func (c *Config) Registry() resolver.Registry {
	entries := make([]resolver.LangEntry, len(c.Langs))
	for i, l := range c.Langs {
		entries[i] = resolver.LangEntry{
			Tag:     l.Name,
			Image:   l.Image,
			Command: l.Command,
		}
	}
	return resolver.NewRegistry(entries)
}

// DefaultConfig returns the built-in defaults: container inline execution
// through Docker, the native system shell, cache enabled, no languages.
func DefaultConfig() *Config {
	return &Config{
		Engine: ContainerEngineDocker,
		Inline: InlineModeContainer,
		Shell:  ShellModeNative,
		Cache:  Cache{Enabled: true},
	}
}
