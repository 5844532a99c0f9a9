package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T, templates map[string]string) *Manager {
	t.Helper()
	dir := t.TempDir()
	for name, body := range templates {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	m, err := NewManager(dir, zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestRenderNestedTemplatePath(t *testing.T) {
	m := newManager(t, map[string]string{
		"canvas/weekly_page.md.tmpl": "# Week {{.week_number}}\n{{range .keywords}}- {{.}}\n{{end}}",
	})
	out, err := m.Render("canvas/weekly_page.md.tmpl", map[string]any{
		"week_number": "3",
		"keywords":    []string{"ritual", "kinship"},
	})
	require.NoError(t, err)
	assert.Equal(t, "# Week 3\n- ritual\n- kinship\n", out)
}

func TestRenderMissingKeyFails(t *testing.T) {
	m := newManager(t, map[string]string{
		"page.tmpl": "{{.absent}}",
	})
	_, err := m.Render("page.tmpl", map[string]any{"present": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page.tmpl")
}

func TestRenderMissingTemplate(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Render("nope.tmpl", nil)
	assert.Error(t, err)
}

func TestNewManagerMissingDir(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	assert.Error(t, err)
}

func TestHas(t *testing.T) {
	m := newManager(t, map[string]string{"a.tmpl": "x"})
	assert.True(t, m.Has("a.tmpl"))
	assert.False(t, m.Has("b.tmpl"))
}

func TestAnyDateFilter(t *testing.T) {
	m := newManager(t, map[string]string{
		"d.tmpl": `{{anydate .when}}`,
		"f.tmpl": `{{anydate .when "2006-01-02"}}`,
	})

	out, err := m.Render("d.tmpl", map[string]any{"when": "March 5, 2026"})
	require.NoError(t, err)
	assert.Equal(t, "03 05, 2026", out)

	out, err = m.Render("f.tmpl", map[string]any{"when": "5 Mar 2026"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", out)

	// unparseable values pass through untouched
	out, err = m.Render("d.tmpl", map[string]any{"when": "TBA"})
	require.NoError(t, err)
	assert.Equal(t, "TBA", out)
}
