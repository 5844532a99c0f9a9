// Package output implements the generation tasks: each task walks part of
// the assembled course context through a template, a format conversion,
// and a destination (Canvas upload, DokuWiki tree, or local files).
// Tasks are fault tolerant per item: one bad week or page is logged and
// skipped, the rest of the run continues.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"canversion/internal/aggregate"
	"canversion/internal/canvas"
	"canversion/internal/config"
	"canversion/internal/convert"
	"canversion/internal/dokuwiki"
	"canversion/internal/render"
	"canversion/internal/store"
)

// AvailableTasks lists every task name Run accepts, in default execution
// order. Skeleton creation is a separate command and deliberately absent.
var AvailableTasks = []string{
	"canvas_weekly_pages",
	"tutorial_lesson_plans",
	"canvas_static_pages",
	"canvas_assignments",
	"dokuwiki_weekly_pages",
	"dokuwiki_class_overview",
	"dokuwiki_lecture_outlines",
	"lecture_scripts_printable",
	"syllabus_docx",
	"wiki_weekly_pages",
	"wiki_overview",
	"wiki_assignments",
	"wiki_static_pages",
}

// citationRef matches a pandoc citation key anywhere in markdown.
var citationRef = regexp.MustCompile(`@[a-zA-Z0-9_:-]+`)

// stemWeek extracts the week number from a lecture file stem.
var stemWeek = regexp.MustCompile(`(?:lecture_|lec_|week_|wk_)(\d+)`)

// Deps are the collaborators a Runner needs. Canvas, Wiki and Ledger may
// be nil; tasks that need an absent collaborator fail with a clear error.
type Deps struct {
	Config    *config.Config
	Course    map[string]any
	Templates *render.Manager
	Converter *convert.Converter
	Canvas    *canvas.Client
	Wiki      *dokuwiki.Writer
	Ledger    *store.Ledger
	Log       *zap.Logger
}

// Runner executes generation tasks against one assembled course context.
type Runner struct {
	cfg    *config.Config
	course map[string]any
	tm     *render.Manager
	conv   *convert.Converter
	canvas *canvas.Client
	wiki   *dokuwiki.Writer
	ledger *store.Ledger
	runID  string
	log    *zap.Logger
}

// NewRunner returns a Runner with a fresh run ID.
func NewRunner(deps Deps) *Runner {
	return &Runner{
		cfg:    deps.Config,
		course: deps.Course,
		tm:     deps.Templates,
		conv:   deps.Converter,
		canvas: deps.Canvas,
		wiki:   deps.Wiki,
		ledger: deps.Ledger,
		runID:  uuid.NewString(),
		log:    deps.Log,
	}
}

// RunID identifies this runner's invocation in the upload ledger.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the named tasks in order. weeks, when non-empty, restricts
// week-scoped tasks to those week numbers. Unknown task names are logged
// and skipped; a task error stops the run.
func (r *Runner) Run(ctx context.Context, tasks, weeks []string) error {
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.Info("running task", zap.String("task", task))
		var err error
		switch task {
		case "canvas_weekly_pages":
			err = r.CanvasWeeklyPages(ctx, weeks)
		case "tutorial_lesson_plans":
			err = r.TutorialLessonPlans(ctx, weeks)
		case "canvas_static_pages":
			err = r.CanvasStaticPages(ctx)
		case "canvas_assignments":
			err = r.CanvasAssignments(ctx)
		case "dokuwiki_weekly_pages":
			err = r.DokuwikiWeeklyPages(ctx, weeks)
		case "dokuwiki_class_overview":
			err = r.DokuwikiClassOverview(ctx)
		case "dokuwiki_lecture_outlines":
			err = r.DokuwikiLectureOutlines(ctx, weeks)
		case "lecture_scripts_printable":
			err = r.LectureScriptsPrintable(ctx, weeks)
		case "syllabus_docx":
			err = r.SyllabusDocx(ctx)
		case "wiki_weekly_pages":
			err = r.WikiWeeklyPages(weeks)
		case "wiki_overview":
			err = r.WikiOverview()
		case "wiki_assignments":
			err = r.WikiAssignments()
		case "wiki_static_pages":
			err = r.WikiStaticPages()
		default:
			r.log.Warn("unknown task, skipping", zap.String("task", task))
			continue
		}
		if err != nil {
			return fmt.Errorf("task %s: %w", task, err)
		}
	}
	return nil
}

// citationOpts resolves the bibliography and CSL style paths into
// conversion options. A configured bibliography that does not exist on
// disk is dropped with a warning.
func (r *Runner) citationOpts() convert.Options {
	var opts convert.Options
	if name := r.cfg.InputSources.YAMLFiles["bibliography"]; name != "" {
		path := filepath.Join(r.cfg.Paths.ClassInput, name)
		if _, err := os.Stat(path); err == nil {
			opts.Bibliography = path
		} else {
			r.log.Warn("bibliography file not found, citations will not be processed",
				zap.String("path", path))
		}
	}
	if csl := r.cfg.Pandoc.DefaultCSLStyle; csl != "" {
		if !filepath.IsAbs(csl) {
			csl = filepath.Join(r.cfg.Paths.CoursesRoot, csl)
		}
		if _, err := os.Stat(csl); err == nil {
			opts.CSL = csl
		} else {
			r.log.Warn("default CSL style not found", zap.String("path", csl))
		}
	}
	return opts
}

// appendReferences adds a trailing References heading when the markdown
// contains citation keys and a bibliography is in play, so citeproc has a
// section to emit into.
func appendReferences(md string, opts convert.Options) string {
	if opts.Bibliography != "" && citationRef.MatchString(md) {
		return md + "\n\n## References"
	}
	return md
}

// weeks returns the week records from the course context, optionally
// filtered to the target week numbers.
func (r *Runner) weeks(targets []string) []map[string]any {
	all, _ := r.course["weeks"].([]map[string]any)
	if len(targets) == 0 {
		return all
	}
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[strings.TrimSpace(t)] = true
	}
	var out []map[string]any
	for _, w := range all {
		if want[strings.TrimSpace(recString(w, "week_number"))] {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		r.log.Warn("no weeks match the requested targets",
			zap.Strings("targets", targets))
	}
	return out
}

// filterStems keeps fragment stems whose embedded week number is in
// targets. An empty target list keeps everything.
func filterStems(stems map[string]string, targets []string) map[string]string {
	if len(targets) == 0 {
		return stems
	}
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[strings.TrimSpace(t)] = true
	}
	out := make(map[string]string)
	for stem, content := range stems {
		if n := stemWeekNumber(stem); n != "" && want[n] {
			out[stem] = content
		}
	}
	return out
}

// stemWeekNumber returns the week number embedded in a lecture stem like
// "week_03_outline" or "lec_7", without leading zeros, or "".
func stemWeekNumber(stem string) string {
	m := stemWeek.FindStringSubmatch(strings.ToLower(stem))
	if m == nil {
		return ""
	}
	return strings.TrimLeft(m[1], "0")
}

// upload runs send unless the ledger says the content is unchanged since
// the last successful upload, and records the upload afterwards.
func (r *Runner) upload(task, slug, content string, send func() error) error {
	hash := store.Hash(content)
	if r.ledger != nil {
		need, err := r.ledger.NeedsUpload(task, slug, hash)
		if err != nil {
			return err
		}
		if !need {
			r.log.Info("content unchanged since last upload, skipping",
				zap.String("task", task), zap.String("slug", slug))
			return nil
		}
	}
	if err := send(); err != nil {
		return err
	}
	if r.ledger != nil {
		if err := r.ledger.MarkUploaded(task, slug, hash, r.runID); err != nil {
			return err
		}
	}
	return nil
}

// classDetails returns the class_details map from the course context.
func (r *Runner) classDetails() map[string]any {
	d, _ := r.course["class_details"].(map[string]any)
	if d == nil {
		d = map[string]any{}
	}
	return d
}

// stems returns a fragment category ("lecture_outlines", "lecture_scripts")
// from the course context.
func (r *Runner) stems(key string) map[string]string {
	m, _ := r.course[key].(map[string]string)
	return m
}

// staticPages returns the structured static pages from the course context.
func (r *Runner) staticPages() map[string]aggregate.StaticPage {
	m, _ := r.course["static_pages_structured"].(map[string]aggregate.StaticPage)
	return m
}

// recString reads a string field from a week or assignment record.
func recString(rec map[string]any, key string) string {
	if v, ok := rec[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
