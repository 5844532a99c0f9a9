package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNeedsUploadLifecycle(t *testing.T) {
	l := openLedger(t)
	runID := uuid.NewString()
	hash := Hash("<h1>Week 1</h1>")

	// never uploaded
	need, err := l.NeedsUpload("canvas_weekly_pages", "week-1", hash)
	require.NoError(t, err)
	assert.True(t, need)

	require.NoError(t, l.MarkUploaded("canvas_weekly_pages", "week-1", hash, runID))

	// same content, skip
	need, err = l.NeedsUpload("canvas_weekly_pages", "week-1", hash)
	require.NoError(t, err)
	assert.False(t, need)

	// content changed, upload again
	need, err = l.NeedsUpload("canvas_weekly_pages", "week-1", Hash("<h1>Week 1 v2</h1>"))
	require.NoError(t, err)
	assert.True(t, need)

	// same slug under a different task is independent
	need, err = l.NeedsUpload("dokuwiki_weekly_pages", "week-1", hash)
	require.NoError(t, err)
	assert.True(t, need)
}

func TestMarkUploadedUpserts(t *testing.T) {
	l := openLedger(t)
	require.NoError(t, l.MarkUploaded("t", "s", Hash("a"), "run-1"))
	require.NoError(t, l.MarkUploaded("t", "s", Hash("b"), "run-2"))

	artifacts, err := l.Artifacts()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, Hash("b"), artifacts[0].ContentHash)
	assert.Equal(t, "run-2", artifacts[0].RunID)
	assert.False(t, artifacts[0].UploadedAt.IsZero())
}

func TestHashStable(t *testing.T) {
	assert.Equal(t, Hash("same"), Hash("same"))
	assert.NotEqual(t, Hash("same"), Hash("different"))
	assert.Len(t, Hash(""), 64)
}
