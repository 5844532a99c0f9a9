// Package dokuwiki exports pages into a DokuWiki data/pages tree by
// direct filesystem access. Namespaces map to directories, page names to
// sanitized .txt files.
package dokuwiki

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9_]+`)
	underscores  = regexp.MustCompile(`_+`)
)

// Writer writes pages under one data/pages base path within a class
// namespace.
type Writer struct {
	basePath  string
	namespace string
	log       *zap.Logger
}

// NewWriter returns a Writer for basePath (the DokuWiki data/pages
// directory) scoped to namespace (for example "courses:anth1001:s1").
func NewWriter(basePath, namespace string, log *zap.Logger) (*Writer, error) {
	if basePath == "" {
		return nil, fmt.Errorf("dokuwiki base path (to data/pages) must be configured")
	}
	if namespace == "" {
		return nil, fmt.Errorf("dokuwiki class namespace must be configured")
	}
	return &Writer{basePath: basePath, namespace: namespace, log: log}, nil
}

// SavePage writes content to the page file for pagename. An empty
// namespace uses the writer's class namespace. With overwrite false an
// existing page is left alone.
func (w *Writer) SavePage(pagename, content, namespace string, overwrite bool) error {
	path, err := w.PageFilepath(pagename, namespace)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			w.log.Info("dokuwiki page exists, not overwriting", zap.String("path", path))
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write dokuwiki page %s: %w", path, err)
	}
	w.log.Debug("saved dokuwiki page", zap.String("path", path))
	return nil
}

// PageFilepath resolves the on-disk path for a page: base path, one
// directory per sanitized namespace segment, sanitized pagename plus
// ".txt".
func (w *Writer) PageFilepath(pagename, namespace string) (string, error) {
	ns := namespace
	if ns == "" {
		ns = w.namespace
	}
	name := SanitizePagename(pagename)
	if name == "" {
		return "", fmt.Errorf("pagename %q is empty after sanitization", pagename)
	}
	path := w.basePath
	for _, part := range strings.Split(ns, ":") {
		path = filepath.Join(path, SanitizePagename(part))
	}
	return filepath.Join(path, name+".txt"), nil
}

// SanitizePagename lowercases a page or namespace segment, maps every run
// of characters outside [a-z0-9_] to a single underscore, and trims
// leading and trailing underscores. Colons are never allowed inside a
// segment.
func SanitizePagename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ":", "_")
	name = invalidChars.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}
