// Package store is the SQLite-backed upload ledger. It records a content
// hash per (task, slug) so repeated runs can skip uploading artifacts
// whose rendered content has not changed.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger tracks uploaded artifacts.
type Ledger struct {
	db *sql.DB
}

// Artifact is one ledger row.
type Artifact struct {
	Task        string
	Slug        string
	ContentHash string
	RunID       string
	UploadedAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	task         TEXT NOT NULL,
	slug         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	uploaded_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (task, slug)
);
`

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// Concurrent CLI invocations share the file; WAL plus a busy timeout
	// keeps writers from erroring out on lock contention.
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Hash returns the ledger's content hash for a rendered artifact body.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NeedsUpload reports whether the (task, slug) artifact with the given
// content hash differs from the last recorded upload.
func (l *Ledger) NeedsUpload(task, slug, hash string) (bool, error) {
	var stored string
	err := l.db.QueryRow(
		"SELECT content_hash FROM artifacts WHERE task = ? AND slug = ?",
		task, slug,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return stored != hash, nil
}

// MarkUploaded records a successful upload.
func (l *Ledger) MarkUploaded(task, slug, hash, runID string) error {
	_, err := l.db.Exec(`
		INSERT INTO artifacts (task, slug, content_hash, run_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (task, slug) DO UPDATE SET
			content_hash = excluded.content_hash,
			run_id = excluded.run_id,
			uploaded_at = excluded.uploaded_at`,
		task, slug, hash, runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// Artifacts lists every recorded artifact, most recent first.
func (l *Ledger) Artifacts() ([]Artifact, error) {
	rows, err := l.db.Query(`
		SELECT task, slug, content_hash, run_id, uploaded_at
		FROM artifacts ORDER BY uploaded_at DESC, task, slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Task, &a.Slug, &a.ContentHash, &a.RunID, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
