package aggregate

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"canversion/internal/fragment"
	"canversion/internal/table"
)

// InstructionsColumn names the assignment-table column holding the
// instructions file reference.
const InstructionsColumn = "instructions-file"

// StaticPage is one standalone content page, resolved from its definition
// entry plus its loaded markdown body.
type StaticPage struct {
	Slug       string
	Title      string
	SourceFile string
	Template   string
	Markdown   string
}

// Assignments attaches instruction markdown to each assignment row via
// case-insensitive stem lookup against the instructions index. Output
// preserves input row order; instructions_md is string or nil.
func (p *Processor) Assignments(assignments table.Table, instructions *fragment.Index) []map[string]any {
	if instructions == nil {
		instructions = fragment.New()
	}
	records := make([]map[string]any, 0, assignments.Len())
	for _, row := range assignments.Rows {
		rec := make(map[string]any, len(row)+1)
		for k, v := range row {
			rec[k] = v
		}
		rec["instructions_md"] = nil

		ref := strings.TrimSpace(row[InstructionsColumn])
		if ref != "" {
			stem := fileStem(ref)
			text, ok := instructions.Get(stem)
			if ok {
				rec["instructions_md"] = text
			}
			if !ok || text == "" {
				p.log.Warn("no instructions markdown found for assignment",
					zap.String("stem", stem),
					zap.String("assignment", row["title"]))
			}
		}
		records = append(records, rec)
	}
	return records
}

// StaticPages keys pages by slug, deriving a title from the slug when the
// definition left it blank. Later entries with a duplicate slug replace
// earlier ones.
func (p *Processor) StaticPages(pages []StaticPage) map[string]StaticPage {
	out := make(map[string]StaticPage, len(pages))
	for _, pg := range pages {
		if strings.TrimSpace(pg.Slug) == "" {
			p.log.Warn("static page definition missing slug, skipping",
				zap.String("source_file", pg.SourceFile))
			continue
		}
		if pg.Title == "" {
			pg.Title = TitleFromSlug(pg.Slug)
		}
		if _, dup := out[pg.Slug]; dup {
			p.log.Warn("duplicate static page slug, keeping the later definition",
				zap.String("slug", pg.Slug))
		}
		out[pg.Slug] = pg
	}
	return out
}

// TitleFromSlug turns a slug like "course_outline" or "reading-list" into
// a display title ("Course Outline", "Reading List").
func TitleFromSlug(slug string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(slug)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// fileStem reduces a file reference to its bare stem: base name with the
// extension stripped.
func fileStem(ref string) string {
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
