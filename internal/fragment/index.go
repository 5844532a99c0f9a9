// Package fragment indexes markdown content files by filename stem for one
// content category (weekly topics, assignment instructions, lecture
// scripts, lecture outlines). Lookup is case-insensitive: the stem is a
// fuzzy content key, not a path.
package fragment

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type entry struct {
	stem string // as spelled on disk
	text string
}

// Index maps content stems to markdown text. Built once per load,
// read-only afterward.
type Index struct {
	entries map[string]entry // keyed by lowercased stem
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[string]entry)}
}

// Set stores text under stem. A stem differing only in case replaces the
// earlier entry.
func (ix *Index) Set(stem, text string) {
	ix.entries[strings.ToLower(stem)] = entry{stem: stem, text: text}
}

// Get looks up a stem case-insensitively.
func (ix *Index) Get(stem string) (string, bool) {
	e, ok := ix.entries[strings.ToLower(stem)]
	return e.text, ok
}

// Len returns the number of indexed fragments.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Stems returns the on-disk stems in sorted order.
func (ix *Index) Stems() []string {
	out := make([]string, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e.stem)
	}
	sort.Strings(out)
	return out
}

// Map returns the index as a stem-to-text mapping using the on-disk stem
// spelling. Used for pass-through context categories (lecture outlines
// and scripts) where templates iterate the whole set.
func (ix *Index) Map() map[string]string {
	out := make(map[string]string, len(ix.entries))
	for _, e := range ix.entries {
		out[e.stem] = e.text
	}
	return out
}

// Load builds an index from every regular file in dir carrying the given
// extension. A missing directory is an empty index plus a warning; the
// category simply has no content.
func Load(dir, ext string, log *zap.Logger) *Index {
	ix := New()
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("markdown directory not readable, category will be empty",
			zap.String("dir", dir), zap.Error(err))
		return ix
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			log.Warn("markdown file not readable, skipping",
				zap.String("file", de.Name()), zap.Error(err))
			continue
		}
		stem := strings.TrimSuffix(de.Name(), ext)
		ix.Set(stem, string(data))
	}
	return ix
}
