// Package render is the template layer. Templates live as files under a
// single directory tree and are addressed by relative path (for example
// "canvas/weekly_page.md.tmpl"). Rendering is strict: a reference to a
// missing context key is an error, not silent empty output.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

// DefaultDateLayout is the layout anydate formats to when the template
// does not pass one.
const DefaultDateLayout = "01 02, 2006"

// Manager renders templates from one directory tree.
type Manager struct {
	dir string
	log *zap.Logger
}

// NewManager returns a Manager rooted at dir. The directory must exist.
func NewManager(dir string, log *zap.Logger) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path is not a directory: %s", dir)
	}
	log.Debug("template manager initialized", zap.String("dir", dir))
	return &Manager{dir: dir, log: log}, nil
}

// Render renders the named template with context. name is a path relative
// to the template root.
func (m *Manager) Render(name string, context map[string]any) (string, error) {
	path := filepath.Join(m.dir, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", name, err)
	}

	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(Funcs()).
		Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, context); err != nil {
		m.log.Error("template rendering failed",
			zap.String("template", name), zap.Error(err))
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Has reports whether the named template exists under the root.
func (m *Manager) Has(name string) bool {
	info, err := os.Stat(filepath.Join(m.dir, filepath.FromSlash(name)))
	return err == nil && !info.IsDir()
}

// Funcs returns the template function map shared by all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"anydate": anyDate,
		"join":    strings.Join,
		"lower":   strings.ToLower,
		"upper":   strings.ToUpper,
		"trim":    strings.TrimSpace,
	}
}

// anyDate parses a value in any common date format and reformats it.
// Unparseable values pass through untouched so templates never break on
// free-form schedule cells.
func anyDate(value any, layout ...string) string {
	s := fmt.Sprintf("%v", value)
	out := DefaultDateLayout
	if len(layout) > 0 && layout[0] != "" {
		out = layout[0]
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format(out)
}
