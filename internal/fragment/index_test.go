package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIndexGetCaseInsensitive(t *testing.T) {
	ix := New()
	ix.Set("Week_03", "# Week three")

	got, ok := ix.Get("week_03")
	require.True(t, ok)
	assert.Equal(t, "# Week three", got)

	got, ok = ix.Get("WEEK_03")
	require.True(t, ok)
	assert.Equal(t, "# Week three", got)

	_, ok = ix.Get("week_04")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	log := zap.NewNop()

	t.Run("indexes files matching extension", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "week_01.md"), []byte("intro"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "week_02.md"), []byte("data"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

		ix := Load(dir, ".md", log)
		assert.Equal(t, 2, ix.Len())
		text, ok := ix.Get("week_01")
		require.True(t, ok)
		assert.Equal(t, "intro", text)
		assert.Equal(t, []string{"week_01", "week_02"}, ix.Stems())
	})

	t.Run("missing directory is empty index", func(t *testing.T) {
		ix := Load(filepath.Join(t.TempDir(), "absent"), ".md", log)
		assert.Equal(t, 0, ix.Len())
	})

	t.Run("map preserves on-disk stem spelling", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Week_01_Outline.md"), []byte("o"), 0o644))
		ix := Load(dir, ".md", log)
		m := ix.Map()
		_, ok := m["Week_01_Outline"]
		assert.True(t, ok)
	})
}
