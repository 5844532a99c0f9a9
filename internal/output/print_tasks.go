package output

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LectureScriptsPrintable renders each lecture script fragment into a PDF
// and a DOCX under output/lecture_scripts_printable.
func (r *Runner) LectureScriptsPrintable(ctx context.Context, targetWeeks []string) error {
	scripts := filterStems(r.stems("lecture_scripts"), targetWeeks)
	if len(scripts) == 0 {
		r.log.Info("no lecture scripts to process")
		return nil
	}
	opts := r.citationOpts()
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "lecture_scripts_printable")

	// index weeks by number so scripts can pull title and date
	weekIndex := make(map[string]map[string]any)
	for _, w := range r.weeks(nil) {
		weekIndex[strings.TrimSpace(recString(w, "week_number"))] = w
	}

	for stem, scriptMD := range scripts {
		log := r.log.With(zap.String("script", stem))
		weekNum := stemWeekNumber(stem)
		title := stemTitle(stem)
		date := "Not specified"
		if week, ok := weekIndex[weekNum]; ok {
			if t := recString(week, "title"); t != "" {
				title = t
			}
			if d := recString(week, "date"); d != "" {
				date = d
			}
		}

		md, err := r.tm.Render("lecture_scripts/printable_script.md.tmpl", map[string]any{
			"lecture_script_content_md": scriptMD,
			"lecture_title":             "Lecture: " + title,
			"week_number":               weekNum,
			"week_title":                title,
			"lecture_date":              date,
			"class_details":             r.classDetails(),
			"course":                    r.course,
		})
		if err != nil {
			log.Error("failed to render printable script, skipping", zap.Error(err))
			continue
		}

		base := filepath.Join(outDir, stem)
		if err := r.conv.ToPDF(ctx, md, base+".pdf", opts); err != nil {
			log.Error("failed to generate PDF", zap.Error(err))
		}
		if err := r.conv.ToDocx(ctx, md, base+".docx", opts); err != nil {
			log.Error("failed to generate DOCX", zap.Error(err))
		}
	}
	return nil
}

// TutorialLessonPlans renders one lesson plan per week into a PDF and a
// standalone HTML document.
func (r *Runner) TutorialLessonPlans(ctx context.Context, targetWeeks []string) error {
	weeks := r.weeks(targetWeeks)
	if len(weeks) == 0 {
		r.log.Info("no weekly data, nothing to generate")
		return nil
	}
	opts := r.citationOpts()
	htmlOpts := opts
	htmlOpts.Standalone = true
	outDir := filepath.Join(r.cfg.Paths.ClassOutput, "tutorial_lesson_plans")

	for _, week := range weeks {
		num := recString(week, "week_number")
		log := r.log.With(zap.String("week", num))

		md, err := r.tm.Render("shared/tutorial_lesson_plan.md.tmpl", map[string]any{
			"week":          week,
			"class_details": r.classDetails(),
			"course":        r.course,
		})
		if err != nil {
			log.Error("failed to render lesson plan, skipping", zap.Error(err))
			continue
		}

		base := filepath.Join(outDir, "week_"+zfill(num, 2)+"_lesson_plan")
		if err := r.conv.ToPDF(ctx, md, base+".pdf", opts); err != nil {
			log.Error("failed to generate PDF", zap.Error(err))
		}
		if err := r.conv.ToHTMLFile(ctx, md, base+".html", htmlOpts); err != nil {
			log.Error("failed to generate HTML", zap.Error(err))
		}
	}
	return nil
}

// SyllabusDocx renders the full syllabus into one DOCX, optionally styled
// by a reference document.
func (r *Runner) SyllabusDocx(ctx context.Context) error {
	opts := r.citationOpts()
	opts.ReferenceDocx = r.cfg.Pandoc.ReferenceDocxSyllabus

	prose := ""
	if page, ok := r.staticPages()["syllabus_main_text"]; ok {
		prose = page.Markdown
	} else {
		r.log.Info("no syllabus prose static page found, generating without it")
	}

	md, err := r.tm.Render("syllabus/syllabus_template.md.tmpl", map[string]any{
		"course":                 r.course,
		"class_details":          r.classDetails(),
		"syllabus_prose_content": prose,
	})
	if err != nil {
		return err
	}

	title, _ := r.classDetails()["title"].(string)
	path := filepath.Join(r.cfg.Paths.ClassOutput, "syllabus_documents",
		TitleSlug(title)+"_syllabus.docx")
	if err := r.conv.ToDocx(ctx, md, path, opts); err != nil {
		return err
	}
	r.log.Info("syllabus generated", zap.String("path", path))
	return nil
}
