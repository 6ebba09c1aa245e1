// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"ocirun-cli/internal/cueutil"
	"ocirun-cli/internal/issue"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "ocirun"
	// BookFileName is the host configuration file read in standalone mode.
	BookFileName = "book.toml"
	// preprocessorTable is the key path of our table inside the host config.
	preprocessorTable = "ocirun"
)

//go:embed config_schema.cue
var configSchema string

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// Table is the host-provided [preprocessor.ocirun] table. When set it
	// takes precedence over any book.toml lookup.
	Table map[string]any
	// BookTomlPath forces reading a specific book.toml when set; otherwise
	// the current directory is tried. A missing file is not an error:
	// defaults apply.
	BookTomlPath string
}

// Load builds the run configuration: defaults, then the host table, then
// OCIRUN_* environment overrides. The merged table is validated against the
// embedded CUE schema and the decoded config is cross-checked; any failure
// here is run-fatal.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("engine", string(defaults.Engine))
	v.SetDefault("inline", string(defaults.Inline))
	v.SetDefault("shell", string(defaults.Shell))
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)

	table := opts.Table
	source := "preprocessor context"
	if table == nil {
		var err error
		table, source, err = readBookToml(opts.BookTomlPath)
		if err != nil {
			return nil, err
		}
	}

	if table != nil {
		if err := cueutil.ValidateAgainstSchema(configSchema, "#Config", source, table); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(source).
				WithSuggestion("Check the [preprocessor.ocirun] table against the documented keys").
				WithSuggestion("Each [[preprocessor.ocirun.lang]] entry needs a name and a command with one {path} token").
				Wrap(err).
				BuildError()
		}
		if err := v.MergeConfigMap(table); err != nil {
			return nil, fmt.Errorf("merge configuration: %w", err)
		}
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(source).
			WithSuggestion("Valid engines are docker and podman; valid inline modes are container and host").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// readBookToml reads the preprocessor table from book.toml. Returns a nil
// table when no file exists.
func readBookToml(path string) (map[string]any, string, error) {
	if path == "" {
		path = BookFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, path, nil
		}
		return nil, path, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file exists and is readable").
			Wrap(err).
			BuildError()
	}

	var book struct {
		Preprocessor map[string]map[string]any `toml:"preprocessor"`
	}
	if err := toml.Unmarshal(data, &book); err != nil {
		return nil, path, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid TOML syntax").
			Wrap(err).
			BuildError()
	}
	return book.Preprocessor[preprocessorTable], path, nil
}
