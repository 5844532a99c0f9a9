package output

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"canversion/internal/canvas"
)

// uploadConcurrency bounds simultaneous Canvas requests.
const uploadConcurrency = 4

// CanvasWeeklyPages renders one Canvas wiki page per week and uploads it.
func (r *Runner) CanvasWeeklyPages(ctx context.Context, targetWeeks []string) error {
	if r.canvas == nil {
		return fmt.Errorf("canvas client not configured")
	}
	weeks := r.weeks(targetWeeks)
	if len(weeks) == 0 {
		r.log.Info("no weekly data, nothing to generate")
		return nil
	}
	opts := r.citationOpts()
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "canvas", "weekly_pages")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, week := range weeks {
		g.Go(func() error {
			num := recString(week, "week_number")
			title := recString(week, "title")
			if title == "" {
				title = "Week " + num
			}
			pageTitle := fmt.Sprintf("Week %s: %s", num, title)
			slug := WeekPageSlug(num, title)
			log := r.log.With(zap.String("week", num), zap.String("slug", slug))

			md, err := r.tm.Render("canvas/weekly_page.md.tmpl", map[string]any{
				"week":          week,
				"class_details": r.classDetails(),
				"course":        r.course,
			})
			if err != nil {
				log.Error("failed to render weekly page, skipping", zap.Error(err))
				return nil
			}

			htmlPath := filepath.Join(outDir, slug+".html")
			if err := r.conv.ToHTMLFile(gctx, md, htmlPath, opts); err != nil {
				log.Error("failed to convert weekly page, skipping upload", zap.Error(err))
				return nil
			}
			html, err := readFile(htmlPath)
			if err != nil {
				log.Error("failed to read converted page", zap.Error(err))
				return nil
			}

			err = r.upload("canvas_weekly_pages", slug, html, func() error {
				_, err := r.canvas.CreateOrUpdatePage(gctx, canvas.PageRequest{
					Title:     pageTitle,
					BodyHTML:  html,
					Slug:      slug,
					Published: r.cfg.CanvasDefaults.PublishPages,
				})
				return err
			})
			if err != nil {
				log.Error("failed to upload weekly page", zap.Error(err))
			} else {
				log.Info("weekly page uploaded", zap.String("title", pageTitle))
			}
			return nil
		})
	}
	return g.Wait()
}

// CanvasStaticPages renders each structured static page and uploads it
// under its configured slug.
func (r *Runner) CanvasStaticPages(ctx context.Context) error {
	if r.canvas == nil {
		return fmt.Errorf("canvas client not configured")
	}
	pages := r.staticPages()
	if len(pages) == 0 {
		r.log.Info("no static pages defined, nothing to generate")
		return nil
	}
	opts := r.citationOpts()
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "canvas", "static_pages")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for slug, page := range pages {
		g.Go(func() error {
			log := r.log.With(zap.String("slug", slug))

			md := page.Markdown
			if page.Template != "" {
				rendered, err := r.tm.Render(page.Template, map[string]any{
					"course":                r.course,
					"overview_prose_content": page.Markdown,
					"page_title":            page.Title,
					"class_details":         r.classDetails(),
				})
				if err != nil {
					log.Error("failed to render static page template, skipping", zap.Error(err))
					return nil
				}
				md = rendered
			}
			md = appendReferences(md, opts)

			htmlPath := filepath.Join(outDir, slug+".html")
			if err := r.conv.ToHTMLFile(gctx, md, htmlPath, opts); err != nil {
				log.Error("failed to convert static page, skipping upload", zap.Error(err))
				return nil
			}
			html, err := readFile(htmlPath)
			if err != nil || html == "" {
				log.Error("no HTML content generated, skipping upload", zap.Error(err))
				return nil
			}

			err = r.upload("canvas_static_pages", slug, html, func() error {
				_, err := r.canvas.CreateOrUpdatePage(gctx, canvas.PageRequest{
					Title:     page.Title,
					BodyHTML:  html,
					Slug:      slug,
					Published: r.cfg.CanvasDefaults.PublishPages,
				})
				return err
			})
			if err != nil {
				log.Error("failed to upload static page", zap.Error(err))
			} else {
				log.Info("static page uploaded", zap.String("title", page.Title))
			}
			return nil
		})
	}
	return g.Wait()
}

// CanvasAssignments renders each assignment description and creates the
// assignment in Canvas with due date, points and submission types parsed
// from the assignment record.
func (r *Runner) CanvasAssignments(ctx context.Context) error {
	if r.canvas == nil {
		return fmt.Errorf("canvas client not configured")
	}
	assignments, _ := r.course["assignments"].([]map[string]any)
	if len(assignments) == 0 {
		r.log.Info("no assignment data, nothing to generate")
		return nil
	}
	opts := r.citationOpts()
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "canvas", "assignments")

	for _, assign := range assignments {
		title := recString(assign, "title")
		if title == "" {
			title = "Untitled Assignment"
		}
		slug := AssignmentSlug(title)
		log := r.log.With(zap.String("assignment", title))

		md, err := r.tm.Render("canvas/assignment_description.md.tmpl", map[string]any{
			"assignment":    assign,
			"course":        r.course,
			"class_details": r.classDetails(),
		})
		if err != nil {
			log.Error("failed to render assignment description, skipping", zap.Error(err))
			continue
		}
		md = appendReferences(md, opts)

		htmlPath := filepath.Join(outDir, slug+"_description.html")
		if err := r.conv.ToHTMLFile(ctx, md, htmlPath, opts); err != nil {
			log.Error("failed to convert assignment description, skipping", zap.Error(err))
			continue
		}
		html, err := readFile(htmlPath)
		if err != nil || html == "" {
			log.Error("no HTML description generated, skipping", zap.Error(err))
			continue
		}

		req := canvas.AssignmentRequest{
			Name:            title,
			DescriptionHTML: html,
			Published:       r.cfg.CanvasDefaults.PublishAssignments,
			DueAt:           parseDueDate(recString(assign, "due")),
			SubmissionTypes: splitSubmissionTypes(recString(assign, "submission_types")),
		}
		if pts := recString(assign, "points"); pts != "" {
			if f, err := strconv.ParseFloat(pts, 64); err == nil {
				req.PointsPossible = &f
			}
		}

		err = r.upload("canvas_assignments", slug, html, func() error {
			_, err := r.canvas.CreateAssignment(ctx, req)
			return err
		})
		if err != nil {
			log.Error("failed to create assignment", zap.Error(err))
		} else {
			log.Info("assignment created")
		}
	}
	return nil
}

// parseDueDate turns a free-form due date cell into ISO 8601, or "".
func parseDueDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05Z07:00")
}

// splitSubmissionTypes parses a comma-separated submission_types cell.
func splitSubmissionTypes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"online_text_entry"}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"none"}
	}
	return out
}
