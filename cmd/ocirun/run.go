// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ocirun-cli/internal/app/preprocess"
	"ocirun-cli/internal/config"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	// renderOutput switches the run command to a styled terminal preview.
	renderOutput bool
	// writeInPlace rewrites the input file with the processed content.
	writeInPlace bool
)

// runCmd processes a single document outside of a build-tool invocation.
// Useful for previewing what a chapter will look like after execution,
// or for applying ocirun to standalone files.
var runCmd = &cobra.Command{
	Use:   "run <file.md>",
	Short: "Process a single document and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		tomlPath := bookToml
		if tomlPath == "" {
			tomlPath = filepath.Join(filepath.Dir(path), config.BookFileName)
		}
		if _, statErr := os.Stat(tomlPath); statErr != nil {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
				"no "+config.BookFileName+" found; using default configuration")
		}
		cfg, err := config.Load(cmd.Context(), config.LoadOptions{BookTomlPath: tomlPath})
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(formatErrorForDisplay(err, verbose)))
			return &ExitError{Code: 1, Err: err}
		}

		workDir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}

		eng := preprocess.New(cfg)
		processed, err := eng.ProcessContent(cmd.Context(), string(raw), workDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(formatErrorForDisplay(err, verbose)))
			return &ExitError{Code: 1, Err: err}
		}

		if writeInPlace {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(processed), info.Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			slog.Info("document updated", "path", path)
			return nil
		}

		if renderOutput {
			return renderToTerminal(cmd.OutOrStdout(), processed)
		}
		fmt.Fprint(cmd.OutOrStdout(), processed)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&renderOutput, "render", false, "render the processed document for the terminal")
	runCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "rewrite the file in place instead of printing")
	runCmd.MarkFlagsMutuallyExclusive("render", "write")
}

func renderToTerminal(out io.Writer, content string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return fmt.Errorf("rendering document: %w", err)
	}
	_, err = out.Write([]byte(rendered))
	return err
}
