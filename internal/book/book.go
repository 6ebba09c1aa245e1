// SPDX-License-Identifier: MPL-2.0

package book

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
)

type (
	// Book is the root of the document tree handed over by the host.
	Book struct {
		Sections []Item `json:"sections"`
		// NonExhaustive mirrors the host's reserved field; it round-trips
		// untouched so future protocol additions don't break re-encoding.
		NonExhaustive *struct{} `json:"__non_exhaustive"`
	}

	// Item is one entry in a book section list. Exactly one of the fields is
	// set: a chapter, a part title, or a separator.
	Item struct {
		Chapter   *Chapter
		PartTitle string
		Separator bool
	}

	// Chapter is a single document: its text content plus the source path the
	// working directory is derived from. SubItems nest recursively.
	Chapter struct {
		Name        string   `json:"name"`
		Content     string   `json:"content"`
		Number      []int    `json:"number"`
		SubItems    []Item   `json:"sub_items"`
		Path        *string  `json:"path"`
		SourcePath  *string  `json:"source_path"`
		ParentNames []string `json:"parent_names"`
	}

	// Context carries the host configuration handed alongside the book.
	Context struct {
		Root     string `json:"root"`
		Config   Config `json:"config"`
		Renderer string `json:"renderer"`
		Version  string `json:"mdbook_version"`
	}

	// Config is the host's parsed book.toml. Preprocessor tables are kept
	// generic; the config package decodes the ocirun table.
	Config struct {
		Book         BookSection               `json:"book"`
		Preprocessor map[string]map[string]any `json:"preprocessor"`
	}

	// BookSection is the [book] table of the host configuration.
	BookSection struct {
		Src string `json:"src"`
	}
)

// UnmarshalJSON decodes the host's tagged item representation: a chapter is
// {"Chapter": {...}}, a part title is {"PartTitle": "..."} and a separator is
// the bare string "Separator".
func (it *Item) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "Separator" {
			return fmt.Errorf("unknown book item %q", tag)
		}
		it.Separator = true
		return nil
	}

	var tagged struct {
		Chapter   *Chapter `json:"Chapter"`
		PartTitle *string  `json:"PartTitle"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode book item: %w", err)
	}
	switch {
	case tagged.Chapter != nil:
		it.Chapter = tagged.Chapter
	case tagged.PartTitle != nil:
		it.PartTitle = *tagged.PartTitle
	default:
		return fmt.Errorf("book item has no recognized variant")
	}
	return nil
}

// MarshalJSON re-encodes the item in the host's tagged representation.
func (it Item) MarshalJSON() ([]byte, error) {
	switch {
	case it.Separator:
		return json.Marshal("Separator")
	case it.Chapter != nil:
		return json.Marshal(map[string]*Chapter{"Chapter": it.Chapter})
	default:
		return json.Marshal(map[string]string{"PartTitle": it.PartTitle})
	}
}

// ReadInput decodes a [context, book] pair from r.
func ReadInput(r io.Reader) (*Context, *Book, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode preprocessor input: %w", err)
	}
	if len(raw) != 2 {
		return nil, nil, fmt.Errorf("preprocessor input must be a [context, book] pair, got %d elements", len(raw))
	}

	ctx := &Context{}
	if err := json.Unmarshal(raw[0], ctx); err != nil {
		return nil, nil, fmt.Errorf("decode preprocessor context: %w", err)
	}
	b := &Book{}
	if err := json.Unmarshal(raw[1], b); err != nil {
		return nil, nil, fmt.Errorf("decode book: %w", err)
	}
	return ctx, b, nil
}

// WriteOutput encodes the transformed book to w.
func (b *Book) WriteOutput(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	return nil
}

// WalkChapters applies fn to every chapter in section order, depth-first.
// Processing stops at the first error.
func (b *Book) WalkChapters(fn func(*Chapter) error) error {
	return walkItems(b.Sections, fn)
}

func walkItems(items []Item, fn func(*Chapter) error) error {
	for i := range items {
		ch := items[i].Chapter
		if ch == nil {
			continue
		}
		if err := fn(ch); err != nil {
			return err
		}
		if err := walkItems(ch.SubItems, fn); err != nil {
			return err
		}
	}
	return nil
}

// WorkingDir resolves the directory commands for this chapter run in: the
// book src directory joined with the chapter path's parent. Draft chapters
// (nil path) fall back to the src directory itself.
func (c *Chapter) WorkingDir(root, src string) string {
	if src == "" {
		src = "src"
	}
	base := filepath.Join(root, src)
	if c.Path == nil || *c.Path == "" {
		return base
	}
	return filepath.Dir(filepath.Join(base, *c.Path))
}
