// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ocirun-cli/internal/book"
	"ocirun-cli/internal/config"
	"ocirun-cli/internal/container"
	"ocirun-cli/internal/resolver"
	"ocirun-cli/internal/runner"
	"ocirun-cli/internal/scanner"
)

type (
	// Engine is the substitution engine: it owns one run's immutable
	// configuration (registry, resolver options, container engine) and
	// processes documents through it. Documents are processed sequentially;
	// directives within a document are never reordered because later
	// directives may depend on files written by earlier ones.
	Engine struct {
		cfg      *config.Config
		registry resolver.Registry
		resolver *resolver.Resolver
		runner   *runner.Runner
		cache    *resultCache
		logger   *slog.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// WithRunner replaces the process runner. Tests inject one with a mocked
// exec command factory.
func WithRunner(r *runner.Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New builds an engine from validated configuration. A missing container
// runtime is not fatal here: host-only documents still process, and
// container directives degrade to per-directive failures.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: cfg.Registry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.resolver = resolver.New(e.registry, resolver.Options{
		HostInline:   cfg.Inline == config.InlineModeHost,
		VirtualShell: cfg.Shell == config.ShellModeVirtual,
	})

	if e.runner == nil {
		var eng container.Engine
		if needsContainers(cfg) {
			var err error
			eng, err = container.NewEngine(container.EngineType(cfg.Engine))
			if err != nil {
				e.logger.Warn("container engine unavailable, container directives will fail",
					"engine", string(cfg.Engine), "error", err)
			}
		}
		e.runner = runner.New(eng)
	}

	if cfg.Cache.Enabled {
		cache, err := newResultCache(cfg.Cache.Dir)
		if err != nil {
			e.logger.Warn("snippet result cache disabled", "error", err)
		} else {
			e.cache = cache
		}
	}

	return e
}

// needsContainers reports whether any configured execution path touches a
// container runtime.
func needsContainers(cfg *config.Config) bool {
	if cfg.Inline == config.InlineModeContainer {
		return true
	}
	for _, l := range cfg.Langs {
		if l.Image != "" {
			return true
		}
	}
	return false
}

// ProcessBook rewrites every chapter in place, in section order. A chapter
// failure aborts the pass; per-directive failures do not.
func (e *Engine) ProcessBook(ctx context.Context, pctx *book.Context, b *book.Book) error {
	return b.WalkChapters(func(ch *book.Chapter) error {
		workDir := ch.WorkingDir(pctx.Root, pctx.Config.Book.Src)
		content, err := e.ProcessContent(ctx, ch.Content, workDir)
		if err != nil {
			return fmt.Errorf("chapter %q: %w", ch.Name, err)
		}
		ch.Content = content
		return nil
	})
}

// ProcessContent runs all directives in one text snapshot and returns the
// substituted text. Non-directive content is copied through byte-for-byte:
// the output is accumulated in forward order from unmodified segments plus
// replacements, all addressed by the original scan offsets.
func (e *Engine) ProcessContent(ctx context.Context, text, workDir string) (string, error) {
	occs, warnings := scanner.Scan(text, workDir)
	for _, w := range warnings {
		e.logger.Warn("scan warning", "detail", w.String())
	}
	if len(occs) == 0 {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	cursor := 0
	for _, occ := range occs {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("document pass canceled: %w", err)
		}
		if occ.Span.Start < cursor {
			e.logger.Warn("skipping overlapping directive", "offset", occ.Span.Start)
			continue
		}
		out.WriteString(text[cursor:occ.Span.Start])

		switch occ.Kind {
		case scanner.KindSnippetBlock:
			out.WriteString(text[occ.Span.Start:occ.Span.End])
			out.WriteString(e.runSnippet(ctx, occ))
		default:
			out.WriteString(e.runInline(ctx, occ))
		}

		cursor = occ.Span.End
		if !occ.ResultSpan.IsEmpty() {
			// A result block from a previous run is replaced, not duplicated.
			cursor = occ.ResultSpan.End
		}
	}
	out.WriteString(text[cursor:])
	return out.String(), nil
}

// runInline resolves and runs a command marker, returning its replacement
// text. Whatever stdout the command produced substitutes regardless of exit
// code; resolution and launch failures remove the marker and surface in the
// run log.
func (e *Engine) runInline(ctx context.Context, occ scanner.Occurrence) string {
	inv, err := e.resolver.Resolve(occ)
	if err != nil {
		e.logger.Error("inline directive skipped", "workdir", occ.WorkDir, "error", err)
		return ""
	}

	res := e.runner.Run(ctx, inv)
	if res.Error != nil {
		e.logger.Error("inline directive failed to launch",
			"payload", occ.Payload, "workdir", occ.WorkDir, "error", res.Error)
	} else if res.ExitCode != 0 {
		e.logger.Warn("inline directive exited non-zero",
			"payload", occ.Payload, "exit_code", res.ExitCode)
	}
	return formatInlineOutput(res.Output, occ.TrailingNewline)
}

// runSnippet resolves and runs a tagged snippet block, returning the result
// block appended after the (preserved) original. Every locally absorbed
// error becomes a failure-tagged diagnostic block, so nothing disappears
// silently.
func (e *Engine) runSnippet(ctx context.Context, occ scanner.Occurrence) string {
	entry, known := e.registry.Lookup(occ.LangTag)
	if known && e.cache != nil {
		if out, succeeded, ok := e.cache.get(entry, occ.Payload); ok {
			return resultBlock(out, succeeded)
		}
	}

	inv, err := e.resolver.Resolve(occ)
	if err != nil {
		e.logger.Error("snippet directive failed to resolve", "lang", occ.LangTag, "error", err)
		return resultBlock(err.Error()+"\n", false)
	}

	res := e.runner.Run(ctx, inv)
	if res.Error != nil {
		e.logger.Error("snippet directive failed to launch", "lang", occ.LangTag, "error", res.Error)
		return resultBlock(res.Error.Error()+"\n", false)
	}

	succeeded := res.ExitCode == 0
	if e.cache != nil {
		if err := e.cache.put(entry, occ.Payload, res.Output, succeeded); err != nil {
			e.logger.Warn("snippet result not cached", "lang", occ.LangTag, "error", err)
		}
	}
	return resultBlock(res.Output, succeeded)
}
