// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ocirun-cli/internal/resolver"
)

const (
	cacheSuccessFile = "success.txt"
	cacheFailureFile = "failure.txt"
)

// resultCache is a content-addressed store for snippet run results, keyed by
// the execution template and the snippet source. A hit skips the run
// entirely, which keeps repeated book builds cheap when snippets and their
// toolchains haven't changed.
type resultCache struct {
	dir string
}

// newResultCache opens (and creates) a cache rooted at dir; an empty dir
// places it under the user cache directory.
func newResultCache(dir string) (*resultCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache directory: %w", err)
		}
		dir = filepath.Join(base, "ocirun")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &resultCache{dir: dir}, nil
}

// entryDir derives the cache location for one snippet execution.
func (c *resultCache) entryDir(entry resolver.LangEntry, source string) string {
	configKey := resolver.Digest(entry.Image + ":" + strings.Join(entry.Command, " "))
	return filepath.Join(c.dir, configKey, resolver.Digest(source))
}

// get returns the cached output and success flag, or ok=false on a miss.
func (c *resultCache) get(entry resolver.LangEntry, source string) (out string, succeeded, ok bool) {
	dir := c.entryDir(entry, source)
	if data, err := os.ReadFile(filepath.Join(dir, cacheSuccessFile)); err == nil {
		return string(data), true, true
	}
	if data, err := os.ReadFile(filepath.Join(dir, cacheFailureFile)); err == nil {
		return string(data), false, true
	}
	return "", false, false
}

// put stores one result. Cache writes are best effort: a full disk never
// fails a document pass.
func (c *resultCache) put(entry resolver.LangEntry, source, out string, succeeded bool) error {
	dir := c.entryDir(entry, source)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	name := cacheFailureFile
	if succeeded {
		name = cacheSuccessFile
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(out), 0o600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
