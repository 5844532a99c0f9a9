// Package loader reads every configured input source for a class into
// memory. Individual sources that are missing or malformed degrade to
// empty values with a warning so that a partially filled class directory
// still produces partial output.
package loader

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"canversion/internal/aggregate"
	"canversion/internal/config"
	"canversion/internal/fragment"
	"canversion/internal/table"
)

// detailSources maps csv_files source keys to the reserved week-record
// fields they feed, in join order.
var detailSources = []struct {
	SourceKey string
	Field     string
}{
	{"weekly_keywords", "keywords"},
	{"weekly_outcomes", "learning_outcomes"},
	{"weekly_brain_candy", "brain_candy"},
	{"weekly_discussion_questions", "discussion_questions"},
}

// Data holds every loaded input source for one class.
type Data struct {
	ClassInfo    map[string]any
	Bibliography any

	Schedule    table.Table
	Assignments table.Table
	Details     []aggregate.Detail

	Topics       *fragment.Index
	Instructions *fragment.Index
	Scripts      *fragment.Index
	Outlines     *fragment.Index

	StaticPages []aggregate.StaticPage
}

// Load reads all input sources named by the configuration from the class
// input directory.
func Load(cfg *config.Config, log *zap.Logger) *Data {
	input := cfg.Paths.ClassInput
	src := cfg.InputSources
	ext := cfg.MarkdownExtension

	d := &Data{
		ClassInfo:    loadYAMLMap(filepath.Join(input, src.YAMLFiles["class_info"]), log),
		Bibliography: loadYAMLAny(filepath.Join(input, src.YAMLFiles["bibliography"]), log),
		Schedule:     table.LoadCSV(filepath.Join(input, src.CSVFiles["weekly_schedule"]), log),
		Assignments:  table.LoadCSV(filepath.Join(input, src.CSVFiles["assignments"]), log),
		Topics:       fragment.Load(filepath.Join(input, src.MarkdownDirs["topics"]), ext, log),
		Instructions: fragment.Load(filepath.Join(input, src.MarkdownDirs["assignment_instructions"]), ext, log),
		Scripts:      fragment.Load(filepath.Join(input, src.MarkdownDirs["lecture_scripts"]), ext, log),
		Outlines:     fragment.Load(filepath.Join(input, src.MarkdownDirs["lecture_outlines"]), ext, log),
	}

	for _, ds := range detailSources {
		d.Details = append(d.Details, aggregate.Detail{
			Field: ds.Field,
			Table: table.LoadCSV(filepath.Join(input, src.CSVFiles[ds.SourceKey]), log),
		})
	}

	d.StaticPages = loadStaticPages(input, src.StaticPages, log)

	return d
}

// Inputs adapts the loaded data plus class configuration into the shape
// the aggregation pass consumes.
func (d *Data) Inputs(cfg *config.Config) aggregate.Inputs {
	m := cfg.ClassMeta
	return aggregate.Inputs{
		ClassInfo:    d.ClassInfo,
		Bibliography: d.Bibliography,
		Schedule:     d.Schedule,
		Details:      d.Details,
		Topics:       d.Topics,
		Assignments:  d.Assignments,
		Instructions: d.Instructions,
		StaticPages:  d.StaticPages,
		Outlines:     d.Outlines,
		Scripts:      d.Scripts,
		Meta: aggregate.ClassMeta{
			ID:                m.ID,
			DepartmentCode:    m.DepartmentCode,
			UnitCode:          m.UnitCode,
			Semester:          m.Semester,
			Year:              m.Year,
			Title:             m.Title,
			Description:       m.Description,
			CanvasCourseID:    m.CanvasCourseID,
			DokuwikiNamespace: m.DokuwikiNamespace,
		},
		TeachingStaff: cfg.TeachingStaff,
		UserDetails:   cfg.UserDetails,
	}
}

// loadStaticPages resolves static page definitions against the class
// input directory. Definitions missing a slug or source file are dropped
// here; a missing file on disk loads as an empty body.
func loadStaticPages(input string, defs []config.StaticPageDef, log *zap.Logger) []aggregate.StaticPage {
	pages := make([]aggregate.StaticPage, 0, len(defs))
	for _, def := range defs {
		if def.Slug == "" || def.SourceFile == "" {
			log.Warn("static page definition incomplete, dropping",
				zap.String("slug", def.Slug),
				zap.String("source_file", def.SourceFile))
			continue
		}
		body := ""
		data, err := os.ReadFile(filepath.Join(input, def.SourceFile))
		if err != nil {
			log.Warn("static page source file unreadable",
				zap.String("slug", def.Slug),
				zap.String("source_file", def.SourceFile),
				zap.Error(err))
		} else {
			body = string(data)
		}
		pages = append(pages, aggregate.StaticPage{
			Slug:       def.Slug,
			Title:      def.Title,
			SourceFile: def.SourceFile,
			Template:   def.Template,
			Markdown:   body,
		})
	}
	return pages
}

func loadYAMLMap(path string, log *zap.Logger) map[string]any {
	out := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("yaml source not loaded", zap.String("path", path), zap.Error(err))
		return out
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		log.Warn("yaml source unparseable", zap.String("path", path), zap.Error(err))
		return map[string]any{}
	}
	return out
}

func loadYAMLAny(path string, log *zap.Logger) any {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("yaml source not loaded", zap.String("path", path), zap.Error(err))
		return nil
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		log.Warn("yaml source unparseable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return out
}
