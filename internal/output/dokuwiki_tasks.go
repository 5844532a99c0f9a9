package output

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DokuwikiWeeklyPages renders each week into DokuWiki syntax and saves it
// as week_NN under the class namespace's weekly sub-namespace.
func (r *Runner) DokuwikiWeeklyPages(ctx context.Context, targetWeeks []string) error {
	if r.wiki == nil {
		return fmt.Errorf("dokuwiki writer not configured")
	}
	weeks := r.weeks(targetWeeks)
	if len(weeks) == 0 {
		r.log.Info("no weekly data, nothing to generate")
		return nil
	}
	opts := r.citationOpts()
	ns := r.cfg.ClassMeta.DokuwikiNamespace + ":weekly"

	for _, week := range weeks {
		num := recString(week, "week_number")
		pagename := "week_" + zfill(num, 2)
		log := r.log.With(zap.String("page", pagename))

		md, err := r.tm.Render("dokuwiki/weekly_page.md.tmpl", map[string]any{
			"week":          week,
			"class_details": r.classDetails(),
			"course":        r.course,
		})
		if err != nil {
			log.Error("failed to render weekly page, skipping", zap.Error(err))
			continue
		}
		content, err := r.conv.ToDokuwiki(ctx, md, opts)
		if err != nil {
			log.Error("failed to convert to dokuwiki syntax, skipping", zap.Error(err))
			continue
		}
		if err := r.wiki.SavePage(pagename, content, ns, true); err != nil {
			log.Error("failed to save weekly page", zap.Error(err))
			continue
		}
		log.Info("dokuwiki weekly page saved", zap.String("namespace", ns))
	}
	return nil
}

// DokuwikiClassOverview renders the class overview prose into the
// namespace's start page.
func (r *Runner) DokuwikiClassOverview(ctx context.Context) error {
	if r.wiki == nil {
		return fmt.Errorf("dokuwiki writer not configured")
	}
	proseKey := r.cfg.Dokuwiki.OverviewProseSlugKey
	prose := "''Prose content for overview page is missing.''"
	if page, ok := r.staticPages()[proseKey]; ok {
		prose = page.Markdown
	} else {
		r.log.Warn("overview prose static page not found",
			zap.String("slug_key", proseKey))
	}

	title := "Class Overview"
	if t, ok := r.classDetails()["title"].(string); ok && t != "" {
		title = t + " Class Overview"
	}

	md, err := r.tm.Render("dokuwiki/class_overview.md.tmpl", map[string]any{
		"course":            r.course,
		"overview_prose_md": prose,
		"page_title":        title,
	})
	if err != nil {
		return fmt.Errorf("failed to render class overview: %w", err)
	}
	content, err := r.conv.ToDokuwiki(ctx, md, r.citationOpts())
	if err != nil {
		return fmt.Errorf("failed to convert class overview: %w", err)
	}
	pagename := r.cfg.Dokuwiki.OverviewPageName
	if err := r.wiki.SavePage(pagename, content, "", true); err != nil {
		return err
	}
	r.log.Info("dokuwiki class overview saved", zap.String("page", pagename))
	return nil
}

// DokuwikiLectureOutlines saves one page per lecture outline fragment
// under the lectures sub-namespace, keyed by the fragment stem.
func (r *Runner) DokuwikiLectureOutlines(ctx context.Context, targetWeeks []string) error {
	if r.wiki == nil {
		return fmt.Errorf("dokuwiki writer not configured")
	}
	outlines := filterStems(r.stems("lecture_outlines"), targetWeeks)
	if len(outlines) == 0 {
		r.log.Info("no lecture outlines to process")
		return nil
	}
	opts := r.citationOpts()
	ns := r.cfg.ClassMeta.DokuwikiNamespace + ":lectures"

	for stem, outlineMD := range outlines {
		log := r.log.With(zap.String("page", stem))
		title := stemTitle(stem)

		md, err := r.tm.Render("dokuwiki/lecture_outline.md.tmpl", map[string]any{
			"outline_content_md": outlineMD,
			"page_title":         title,
			"class_details":      r.classDetails(),
			"course":             r.course,
		})
		if err != nil {
			log.Error("failed to render lecture outline, skipping", zap.Error(err))
			continue
		}
		content, err := r.conv.ToDokuwiki(ctx, md, opts)
		if err != nil {
			log.Error("failed to convert to dokuwiki syntax, skipping", zap.Error(err))
			continue
		}
		if err := r.wiki.SavePage(stem, content, ns, true); err != nil {
			log.Error("failed to save lecture outline", zap.Error(err))
			continue
		}
		log.Info("dokuwiki lecture outline saved", zap.String("namespace", ns))
	}
	return nil
}

// stemTitle turns a fragment stem into a display title: separators become
// spaces and the first letter is capitalized.
func stemTitle(stem string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
