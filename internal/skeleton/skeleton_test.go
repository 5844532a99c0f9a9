package skeleton

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canversion/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.ClassInput = t.TempDir()
	cfg.SkeletonTargets = map[string]string{
		"weekly_topics":           "topics",
		"lecture_outlines":        "lecture_outlines",
		"assignment_instructions": "assignment_instructions",
	}
	return cfg
}

func TestCreateWeeklySkeletons(t *testing.T) {
	cfg := testConfig(t)
	c := NewCreator(cfg, zap.NewNop())

	weeks := []map[string]any{
		{"week_number": "1", "title": "Kinship"},
		{"week_number": "10", "title": ""},
	}
	require.NoError(t, c.Create(weeks, nil))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.ClassInput, "markdown_topics", "week_01_topic.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Kinship\n\n", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.Paths.ClassInput, "markdown_lectures", "week_10_outline.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Week 10\n\n", string(data))
}

func TestCreateNeverOverwrites(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.Paths.ClassInput, "markdown_topics")
	require.NoError(t, os.MkdirAll(dir, 0755))
	existing := filepath.Join(dir, "week_01_topic.md")
	require.NoError(t, os.WriteFile(existing, []byte("hand-written content"), 0644))

	c := NewCreator(cfg, zap.NewNop())
	require.NoError(t, c.Create([]map[string]any{{"week_number": "1", "title": "Kinship"}}, nil))

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "hand-written content", string(data))
}

func TestCreateAssignmentSkeletons(t *testing.T) {
	cfg := testConfig(t)
	c := NewCreator(cfg, zap.NewNop())

	assignments := []map[string]any{
		{"title": "Major Essay", "instructions-file": "major_essay.md"},
		{"title": "No File"},
	}
	require.NoError(t, c.Create(nil, assignments))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.ClassInput, "markdown_assignments", "major_essay.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Assignment: Major Essay\n\n## Instructions\n\n", string(data))

	entries, err := os.ReadDir(filepath.Join(cfg.Paths.ClassInput, "markdown_assignments"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateRequiresInputDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.ClassInput = filepath.Join(cfg.Paths.ClassInput, "missing")
	c := NewCreator(cfg, zap.NewNop())
	assert.Error(t, c.Create(nil, nil))
}

func TestCreateNoTargetsIsNoop(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkeletonTargets = nil
	c := NewCreator(cfg, zap.NewNop())
	require.NoError(t, c.Create([]map[string]any{{"week_number": "1"}}, nil))
	entries, err := os.ReadDir(cfg.Paths.ClassInput)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
