// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"ocirun-cli/internal/book"
	"ocirun-cli/internal/config"
)

// virtualConfig processes inline markers in the embedded shell interpreter so
// tests run identically on every platform.
func virtualConfig() *config.Config {
	return &config.Config{
		Engine: config.ContainerEngineDocker,
		Inline: config.InlineModeHost,
		Shell:  config.ShellModeVirtual,
	}
}

// hostShConfig registers an "sh" snippet language executed by the system
// shell. Snippet templates always launch a real process.
func hostShConfig() *config.Config {
	cfg := virtualConfig()
	cfg.Langs = []config.Lang{
		{Name: "sh", Command: []string{"sh", "{path}"}},
	}
	return cfg
}

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test runs snippets through a POSIX shell")
	}
}

func TestProcessContent_InlineSubstitution(t *testing.T) {
	t.Parallel()

	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), "# Counts\n\n<!-- ocirun echo 1; echo 2; echo 3 -->\n\nDone.\n", t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	want := "# Counts\n\n1\n2\n3\n\nDone.\n"
	if got != want {
		t.Errorf("ProcessContent() = %q, want %q", got, want)
	}
}

func TestProcessContent_MidLineMarkerTrimmed(t *testing.T) {
	t.Parallel()

	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), "Version: <!-- ocirun echo v1.2.3 --> (stable)\n", t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	want := "Version: v1.2.3 (stable)\n"
	if got != want {
		t.Errorf("ProcessContent() = %q, want %q", got, want)
	}
}

func TestProcessContent_NonZeroExitStillSubstitutes(t *testing.T) {
	t.Parallel()

	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), "<!-- ocirun echo partial; exit 3 -->\n", t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if got != "partial\n" {
		t.Errorf("ProcessContent() = %q, want partial output substituted", got)
	}
}

func TestProcessContent_NoDirectivesPassThrough(t *testing.T) {
	t.Parallel()

	text := "# Plain chapter\n\nNothing to run here.\n\n```python\nprint(1)\n```\n"
	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if got != text {
		t.Errorf("ProcessContent() = %q, want unchanged input", got)
	}
}

func TestProcessContent_MarkerInsideFenceUntouched(t *testing.T) {
	t.Parallel()

	text := "```text\n<!-- ocirun echo hi -->\n```\n"
	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if got != text {
		t.Errorf("ProcessContent() = %q, want marker preserved inside fence", got)
	}
}

func TestProcessContent_SnippetSuccessBlock(t *testing.T) {
	t.Parallel()
	requirePOSIXShell(t)

	text := "Intro.\n\n```sh,ocirun\necho from snippet\n```\n\nOutro.\n"
	e := New(hostShConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	want := "Intro.\n\n```sh,ocirun\necho from snippet\n```\n```console,success\nfrom snippet\n```\n\nOutro.\n"
	if got != want {
		t.Errorf("ProcessContent() = %q, want %q", got, want)
	}
}

func TestProcessContent_SnippetFailureBlock(t *testing.T) {
	t.Parallel()
	requirePOSIXShell(t)

	text := "```sh,ocirun\necho oops\nexit 2\n```\n"
	e := New(hostShConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if !strings.Contains(got, "```console,failure\noops\n```") {
		t.Errorf("ProcessContent() = %q, want failure-tagged result block", got)
	}
	if !strings.Contains(got, "```sh,ocirun\necho oops\nexit 2\n```") {
		t.Error("original snippet block should be preserved verbatim")
	}
}

func TestProcessContent_UnknownLanguageContinues(t *testing.T) {
	t.Parallel()

	text := "```ruby,ocirun\nputs 1\n```\n\n<!-- ocirun echo still runs -->\n"
	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if !strings.Contains(got, "```console,failure\n") {
		t.Errorf("ProcessContent() = %q, want a failure block for the unknown language", got)
	}
	if !strings.Contains(got, "unknown snippet language") {
		t.Errorf("ProcessContent() = %q, want the resolution error as diagnostic output", got)
	}
	if !strings.Contains(got, "still runs\n") {
		t.Errorf("ProcessContent() = %q, later directives should still execute", got)
	}
}

func TestProcessContent_SnippetIdempotence(t *testing.T) {
	t.Parallel()
	requirePOSIXShell(t)

	text := "```sh,ocirun\necho stable\n```\n\nAfter.\n"
	e := New(hostShConfig())

	first, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("first pass error = %v", err)
	}
	second, err := e.ProcessContent(context.Background(), first, t.TempDir())
	if err != nil {
		t.Fatalf("second pass error = %v", err)
	}
	if second != first {
		t.Errorf("second pass = %q, want fixed point %q", second, first)
	}
	if strings.Count(second, "```console,success") != 1 {
		t.Errorf("result blocks = %d, want exactly 1", strings.Count(second, "```console,success"))
	}
}

func TestProcessContent_StaleResultReplaced(t *testing.T) {
	t.Parallel()
	requirePOSIXShell(t)

	// A result block from an earlier run with different output.
	text := "```sh,ocirun\necho fresh\n```\n```console,failure\nstale output\n```\n"
	e := New(hostShConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if strings.Contains(got, "stale output") {
		t.Errorf("ProcessContent() = %q, stale result block should be replaced", got)
	}
	if !strings.Contains(got, "```console,success\nfresh\n```") {
		t.Errorf("ProcessContent() = %q, want fresh result block", got)
	}
}

func TestProcessContent_MultipleDirectivesInOrder(t *testing.T) {
	t.Parallel()

	text := "<!-- ocirun echo first -->\nmiddle\n<!-- ocirun echo second -->\n"
	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	want := "first\nmiddle\nsecond\n"
	if got != want {
		t.Errorf("ProcessContent() = %q, want %q", got, want)
	}
}

func TestProcessContent_WorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := New(virtualConfig())
	got, err := e.ProcessContent(context.Background(), "<!-- ocirun pwd -->\n", dir)
	if err != nil {
		t.Fatalf("ProcessContent() error = %v", err)
	}
	if !strings.Contains(got, strings.TrimSuffix(dir, "/")) {
		t.Errorf("ProcessContent() = %q, want output from working dir %q", got, dir)
	}
}

func TestProcessContent_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(virtualConfig())
	if _, err := e.ProcessContent(ctx, "<!-- ocirun echo hi -->\n", t.TempDir()); err == nil {
		t.Error("ProcessContent() = nil error, want cancellation")
	}
}

func TestProcessContent_SnippetUsesCache(t *testing.T) {
	requirePOSIXShell(t)

	cfg := hostShConfig()
	cfg.Cache = config.Cache{Enabled: true, Dir: t.TempDir()}
	e := New(cfg)

	text := "```sh,ocirun\necho cached\n```\n"
	first, err := e.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("first pass error = %v", err)
	}
	if !strings.Contains(first, "```console,success\ncached\n```") {
		t.Fatalf("first pass = %q", first)
	}

	// A second engine over the same cache dir must serve the stored result.
	e2 := New(cfg)
	second, err := e2.ProcessContent(context.Background(), text, t.TempDir())
	if err != nil {
		t.Fatalf("second pass error = %v", err)
	}
	if second != first {
		t.Errorf("cached pass = %q, want %q", second, first)
	}
}

func strPtr(s string) *string { return &s }

func TestProcessBook(t *testing.T) {
	t.Parallel()

	b := &book.Book{
		Sections: []book.Item{
			{Chapter: &book.Chapter{
				Name:    "First",
				Content: "<!-- ocirun echo one -->\n",
				Path:    strPtr("first.md"),
			}},
			{Separator: true},
			{Chapter: &book.Chapter{
				Name:    "Parent",
				Content: "plain\n",
				Path:    strPtr("parent.md"),
				SubItems: []book.Item{
					{Chapter: &book.Chapter{
						Name:    "Child",
						Content: "<!-- ocirun echo two -->\n",
						Path:    strPtr("nested/child.md"),
					}},
				},
			}},
		},
	}
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src", "nested"), 0o700); err != nil {
		t.Fatal(err)
	}
	pctx := &book.Context{
		Root:     root,
		Renderer: "html",
		Config:   book.Config{Book: book.BookSection{Src: "src"}},
	}

	e := New(virtualConfig())
	if err := e.ProcessBook(context.Background(), pctx, b); err != nil {
		t.Fatalf("ProcessBook() error = %v", err)
	}

	if got := b.Sections[0].Chapter.Content; got != "one\n" {
		t.Errorf("first chapter = %q, want %q", got, "one\n")
	}
	if !b.Sections[1].Separator {
		t.Error("separator should survive processing")
	}
	if got := b.Sections[2].Chapter.Content; got != "plain\n" {
		t.Errorf("plain chapter = %q, want unchanged", got)
	}
	if got := b.Sections[2].Chapter.SubItems[0].Chapter.Content; got != "two\n" {
		t.Errorf("nested chapter = %q, want %q", got, "two\n")
	}
}

func TestNeedsContainers(t *testing.T) {
	t.Parallel()

	if needsContainers(virtualConfig()) {
		t.Error("host-inline config with no container langs should not need an engine")
	}
	if !needsContainers(config.DefaultConfig()) {
		t.Error("container inline mode should need an engine")
	}
	cfg := virtualConfig()
	cfg.Langs = []config.Lang{{Name: "python", Image: "python:3-slim", Command: []string{"python3", "{path}"}}}
	if !needsContainers(cfg) {
		t.Error("a container-image language should need an engine")
	}
}
