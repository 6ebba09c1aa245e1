// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// MaterializeSource writes a snippet body to a temporary file and returns its
// path. The name is the content digest, so concurrent passes materializing
// the same snippet agree on one path instead of racing over a shared name.
func MaterializeSource(body string) (string, error) {
	path := filepath.Join(os.TempDir(), "ocirun-"+Digest(body))
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return "", fmt.Errorf("materialize snippet source: %w", err)
	}
	return path, nil
}

// Digest returns the hex sha256 of a string. Snippet source files and cache
// keys are content-addressed with it.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
