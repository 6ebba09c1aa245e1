// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ocirun-cli/internal/config"

	"github.com/spf13/cobra"
)

// langsCmd lists the snippet languages the current configuration declares,
// with the image and command template each one resolves to.
var langsCmd = &cobra.Command{
	Use:   "langs",
	Short: "List configured snippet languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tomlPath := bookToml
		if tomlPath == "" {
			tomlPath = config.BookFileName
		}
		cfg, err := config.Load(cmd.Context(), config.LoadOptions{BookTomlPath: tomlPath})
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(formatErrorForDisplay(err, verbose)))
			return &ExitError{Code: 1, Err: err}
		}

		registry := cfg.Registry()
		if registry.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render(
				fmt.Sprintf("no snippet languages configured in %s", filepath.Base(tomlPath))))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render("Snippet languages"))
		for _, tag := range registry.Tags() {
			entry, _ := registry.Lookup(tag)
			target := "host"
			if entry.Image != "" {
				target = entry.Image
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %-20s %s\n",
				tag, target, strings.Join(entry.Command, " "))
		}
		return nil
	},
}
