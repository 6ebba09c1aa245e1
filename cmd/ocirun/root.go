// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"ocirun-cli/internal/issue"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// bookToml allows specifying a custom book.toml path
	bookToml string

	// rootCmd represents the base command. Invoked without a subcommand it
	// behaves as the preprocessor: [context, book] JSON in on stdin,
	// transformed book JSON out on stdout.
	rootCmd = &cobra.Command{
		Use:   "ocirun",
		Short: "Run commands embedded in documentation and splice their output back in",
		Long: TitleStyle.Render("ocirun") + SubtitleStyle.Render(" - documentation post-processing engine") + `

ocirun scans book chapters for directives, runs each one (on the host
shell or inside a container), and substitutes the captured output into
the document:

  <!-- ocirun alpine seq 1 3 -->      inline command marker
  ` + "```python,ocirun" + `                  fenced snippet tagged for execution

Snippet languages are declared in the [preprocessor.ocirun] table of
book.toml. Results of tagged snippets are appended as fenced blocks
tagged console,success or console,failure.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreprocess(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&bookToml, "book-toml", "", "host configuration file (default ./book.toml)")

	rootCmd.AddCommand(supportsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(langsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	initLogging()

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initLogging routes slog through a styled stderr logger. Stdout belongs to
// the book protocol and must carry nothing but the transformed book.
func initLogging() {
	level := charmlog.InfoLevel
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			level = charmlog.DebugLevel
		}
	}
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:        level,
		ReportCaller: false,
		Prefix:       "ocirun",
	})
	slog.SetDefault(slog.New(handler))
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// carry suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
