// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ocirun-cli/internal/app/preprocess"
	"ocirun-cli/internal/book"
	"ocirun-cli/internal/config"

	"github.com/spf13/cobra"
)

// supportsCmd implements the renderer negotiation handshake. The build
// tool probes `ocirun supports <renderer>` before processing; a zero
// exit means the renderer is handled.
var supportsCmd = &cobra.Command{
	Use:   "supports <renderer>",
	Short: "Report whether a renderer is supported",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if args[0] == "html" {
			return nil
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("renderer %q is not supported", args[0])}
	},
}

// runPreprocess is the default behavior of the bare `ocirun` invocation:
// decode the [context, book] pair from stdin, process every chapter, and
// emit the transformed book on stdout.
func runPreprocess(ctx context.Context, in io.Reader, out io.Writer) error {
	pctx, bk, err := book.ReadInput(in)
	if err != nil {
		return fmt.Errorf("reading preprocessor input: %w", err)
	}

	if pctx.Renderer != "" && pctx.Renderer != "html" {
		slog.Warn("unsupported renderer, passing book through unchanged", "renderer", pctx.Renderer)
		return bk.WriteOutput(out)
	}

	cfg, err := loadConfig(ctx, pctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(formatErrorForDisplay(err, verbose)))
		return &ExitError{Code: 1, Err: err}
	}

	eng := preprocess.New(cfg)
	if err := eng.ProcessBook(ctx, pctx, bk); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(formatErrorForDisplay(err, verbose)))
		return &ExitError{Code: 1, Err: err}
	}

	return bk.WriteOutput(out)
}

// loadConfig resolves configuration for a preprocessor run. The table the
// build tool already parsed out of book.toml takes precedence; the
// --book-toml flag forces a re-read from disk instead.
func loadConfig(ctx context.Context, pctx *book.Context) (*config.Config, error) {
	opts := config.LoadOptions{}
	if bookToml != "" {
		opts.BookTomlPath = bookToml
	} else if table := pctx.Config.Preprocessor[config.AppName]; table != nil {
		opts.Table = table
	} else {
		opts.BookTomlPath = filepath.Join(pctx.Root, config.BookFileName)
	}
	return config.Load(ctx, opts)
}
