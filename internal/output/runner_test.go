package output

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canversion/internal/aggregate"
	"canversion/internal/canvas"
	"canversion/internal/config"
	"canversion/internal/convert"
	"canversion/internal/render"
	"canversion/internal/store"
)

func testCourse() map[string]any {
	return map[string]any{
		"class_details": map[string]any{"title": "Intro Anthropology"},
		"weeks": []map[string]any{
			{"week_number": "1", "title": "Kinship", "keywords": []string{"family"}},
			{"week_number": "2", "title": "Ritual", "keywords": []string{}},
		},
		"assignments": []map[string]any{
			{"title": "Major Essay", "points": "40", "due": "2026-10-30",
				"submission_types": "online_upload, online_text_entry"},
		},
		"static_pages_structured": map[string]aggregate.StaticPage{
			"course_outline": {Slug: "course_outline", Title: "Course Outline", Markdown: "# Outline"},
		},
		"lecture_outlines": map[string]string{
			"week_01_outline": "outline one",
			"week_02_outline": "outline two",
		},
		"lecture_scripts": map[string]string{},
	}
}

func testRunner(t *testing.T, templates map[string]string, cv *canvas.Client) (*Runner, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0755))
	for name, body := range templates {
		path := filepath.Join(tmplDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	tm, err := render.NewManager(tmplDir, zap.NewNop())
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Paths.ClassOutput = filepath.Join(dir, "output")
	cfg.Paths.ClassInput = filepath.Join(dir, "input")
	cfg.Paths.CoursesRoot = dir

	// nonexistent pandoc exercises the goldmark fallback for HTML
	conv := convert.NewConverter(filepath.Join(dir, "no-pandoc"), "", time.Second, zap.NewNop())

	ledger, err := store.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	return NewRunner(Deps{
		Config:    cfg,
		Course:    testCourse(),
		Templates: tm,
		Converter: conv,
		Canvas:    cv,
		Ledger:    ledger,
		Log:       zap.NewNop(),
	}), cfg
}

func TestWeekPageSlug(t *testing.T) {
	assert.Equal(t, "week-1-kinship_and_descent", WeekPageSlug("1", "Kinship and Descent"))
	assert.Equal(t, "week-2-fieldwork_ethics", WeekPageSlug("2", "Fieldwork/Ethics"))
	// title truncated at 30 characters before cleaning
	long := WeekPageSlug("3", "a very long topic title that keeps going and going")
	assert.LessOrEqual(t, len(long), len("week-3-")+30)
}

func TestAssignmentSlug(t *testing.T) {
	assert.Equal(t, "major_essay", AssignmentSlug("Major Essay"))
	assert.Equal(t, "reading_response_12", AssignmentSlug("Reading Response/1.2"))
	assert.Equal(t, "assignment", AssignmentSlug("???"))
}

func TestStemWeekNumber(t *testing.T) {
	cases := map[string]string{
		"week_03_outline": "3",
		"lecture_12":      "12",
		"lec_7_script":    "7",
		"wk_01":           "1",
		"WEEK_05":         "5",
		"introduction":    "",
	}
	for stem, want := range cases {
		assert.Equal(t, want, stemWeekNumber(stem), stem)
	}
}

func TestFilterStems(t *testing.T) {
	stems := map[string]string{
		"week_01_outline": "a",
		"week_02_outline": "b",
		"orientation":     "c",
	}
	got := filterStems(stems, []string{"2"})
	assert.Equal(t, map[string]string{"week_02_outline": "b"}, got)

	// empty targets keep everything
	assert.Len(t, filterStems(stems, nil), 3)
}

func TestAppendReferences(t *testing.T) {
	withBib := convert.Options{Bibliography: "/b.yaml"}
	assert.Contains(t, appendReferences("cites [@smith2020]", withBib), "## References")
	assert.NotContains(t, appendReferences("no citations here", withBib), "## References")
	assert.NotContains(t, appendReferences("cites [@smith2020]", convert.Options{}), "## References")
}

func TestParseDueDate(t *testing.T) {
	assert.Equal(t, "", parseDueDate(""))
	assert.Equal(t, "", parseDueDate("whenever"))
	assert.Contains(t, parseDueDate("2026-10-30"), "2026-10-30T")
}

func TestSplitSubmissionTypes(t *testing.T) {
	assert.Equal(t, []string{"online_text_entry"}, splitSubmissionTypes(""))
	assert.Equal(t, []string{"online_upload", "online_text_entry"},
		splitSubmissionTypes("online_upload, online_text_entry"))
	assert.Equal(t, []string{"none"}, splitSubmissionTypes(" , "))
}

func TestWikiWeeklyPagesWritesFilteredWeeks(t *testing.T) {
	r, cfg := testRunner(t, map[string]string{
		"wiki/weekly_page.md.tmpl": "# Week {{.week.week_number}}: {{.week.title}}\n",
	}, nil)

	require.NoError(t, r.WikiWeeklyPages([]string{"2"}))

	outDir := filepath.Join(cfg.Paths.ClassOutput, "wiki", "weekly")
	data, err := os.ReadFile(filepath.Join(outDir, "02.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Week 2: Ritual\n", string(data))
	_, err = os.Stat(filepath.Join(outDir, "01.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestWikiAssignmentsAndStaticPages(t *testing.T) {
	r, cfg := testRunner(t, map[string]string{
		"wiki/assignment_page.md.tmpl": "# {{.assignment.title}}\n",
		"wiki/static_page.md.tmpl":     "# {{.page.Title}}\n{{.page.Markdown}}\n",
	}, nil)

	require.NoError(t, r.WikiAssignments())
	data, err := os.ReadFile(filepath.Join(cfg.Paths.ClassOutput, "wiki", "assignments", "major-essay.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Major Essay\n", string(data))

	require.NoError(t, r.WikiStaticPages())
	data, err = os.ReadFile(filepath.Join(cfg.Paths.ClassOutput, "wiki", "static", "course_outline.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Course Outline")
}

func TestCanvasWeeklyPagesUploadsAndSkipsUnchanged(t *testing.T) {
	var uploads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		uploads.Add(1)
		_ = json.NewEncoder(w).Encode(canvas.Page{URL: "u"})
	}))
	t.Cleanup(srv.Close)
	client, err := canvas.NewClient(srv.URL, "tok", "1", time.Second, zap.NewNop())
	require.NoError(t, err)

	r, cfg := testRunner(t, map[string]string{
		"canvas/weekly_page.md.tmpl": "# Week {{.week.week_number}}\n",
	}, client)

	require.NoError(t, r.CanvasWeeklyPages(context.Background(), nil))
	assert.EqualValues(t, 2, uploads.Load())

	// rendered html lands on disk
	assert.FileExists(t, filepath.Join(cfg.Paths.ClassOutput,
		"canvas", "weekly_pages", WeekPageSlug("1", "Kinship")+".html"))

	// second run: ledger sees identical content, uploads nothing
	require.NoError(t, r.CanvasWeeklyPages(context.Background(), nil))
	assert.EqualValues(t, 2, uploads.Load())
}

func TestCanvasTasksRequireClient(t *testing.T) {
	r, _ := testRunner(t, nil, nil)
	assert.Error(t, r.CanvasWeeklyPages(context.Background(), nil))
	assert.Error(t, r.CanvasStaticPages(context.Background()))
	assert.Error(t, r.CanvasAssignments(context.Background()))
}

func TestRunUnknownTaskSkipped(t *testing.T) {
	r, _ := testRunner(t, map[string]string{
		"wiki/overview_page.md.tmpl": "{{.overview_prose_content}}",
	}, nil)
	err := r.Run(context.Background(), []string{"no_such_task", "wiki_overview"}, nil)
	require.NoError(t, err)
}
