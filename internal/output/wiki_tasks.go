package output

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// WikiWeeklyPages writes one local markdown page per week under
// output/wiki/weekly, named by zero-padded week number.
func (r *Runner) WikiWeeklyPages(targetWeeks []string) error {
	weeks := r.weeks(targetWeeks)
	if len(weeks) == 0 {
		r.log.Info("no weekly data, nothing to generate")
		return nil
	}
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "wiki", "weekly")

	for _, week := range weeks {
		num := zfill(recString(week, "week_number"), 2)
		log := r.log.With(zap.String("week", num))

		content, err := r.tm.Render("wiki/weekly_page.md.tmpl", map[string]any{
			"week":   week,
			"course": r.course,
		})
		if err != nil {
			log.Error("failed to render wiki weekly page, skipping", zap.Error(err))
			continue
		}
		path := filepath.Join(outDir, num+r.cfg.MarkdownExtension)
		if err := writeTextFile(path, content); err != nil {
			log.Error("failed to write wiki weekly page", zap.Error(err))
			continue
		}
		log.Debug("wiki weekly page written", zap.String("path", path))
	}
	return nil
}

// WikiOverview writes the overview page as local markdown.
func (r *Runner) WikiOverview() error {
	proseKey := r.cfg.Dokuwiki.OverviewProseSlugKey
	prose := "Overview content not found."
	if page, ok := r.staticPages()[proseKey]; ok {
		prose = page.Markdown
	}

	content, err := r.tm.Render("wiki/overview_page.md.tmpl", map[string]any{
		"course":                 r.course,
		"overview_prose_content": prose,
	})
	if err != nil {
		return err
	}
	path := filepath.Join(r.cfg.Paths.ClassOutput, "wiki", "overview"+r.cfg.MarkdownExtension)
	if err := writeTextFile(path, content); err != nil {
		return err
	}
	r.log.Info("wiki overview written", zap.String("path", path))
	return nil
}

// WikiAssignments writes one local markdown page per assignment.
func (r *Runner) WikiAssignments() error {
	assignments, _ := r.course["assignments"].([]map[string]any)
	if len(assignments) == 0 {
		r.log.Info("no assignment data, nothing to generate")
		return nil
	}
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "wiki", "assignments")

	for _, assign := range assignments {
		title := recString(assign, "title")
		if title == "" {
			title = "Untitled Assignment"
		}
		log := r.log.With(zap.String("assignment", title))

		content, err := r.tm.Render("wiki/assignment_page.md.tmpl", map[string]any{
			"assignment": assign,
			"course":     r.course,
		})
		if err != nil {
			log.Error("failed to render wiki assignment page, skipping", zap.Error(err))
			continue
		}
		path := filepath.Join(outDir, WikiFileSlug(title)+r.cfg.MarkdownExtension)
		if err := writeTextFile(path, content); err != nil {
			log.Error("failed to write wiki assignment page", zap.Error(err))
		}
	}
	return nil
}

// WikiStaticPages writes each structured static page as local markdown.
func (r *Runner) WikiStaticPages() error {
	pages := r.staticPages()
	if len(pages) == 0 {
		r.log.Info("no static pages defined, nothing to generate")
		return nil
	}
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "wiki", "static")

	for slug, page := range pages {
		log := r.log.With(zap.String("slug", slug))
		content, err := r.tm.Render("wiki/static_page.md.tmpl", map[string]any{
			"page":   page,
			"course": r.course,
		})
		if err != nil {
			log.Error("failed to render wiki static page, skipping", zap.Error(err))
			continue
		}
		path := filepath.Join(outDir, slug+r.cfg.MarkdownExtension)
		if err := writeTextFile(path, content); err != nil {
			log.Error("failed to write wiki static page", zap.Error(err))
		}
	}
	return nil
}

func writeTextFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
