// SPDX-License-Identifier: MPL-2.0

// ocirun is a documentation post-processing engine: it runs commands
// embedded in book chapters and splices their output into the text.
package main

import (
	cmd "ocirun-cli/cmd/ocirun"
)

func main() {
	cmd.Execute()
}
