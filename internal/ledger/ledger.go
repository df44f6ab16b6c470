// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records uploaded files in SQLite so a re-run does not upload
// the same content to the same destination twice.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Upload is one recorded upload.
type Upload struct {
	RunID       string
	Destination string
	Name        string
	Checksum    string
	RemoteID    string
	WebViewLink string
	UploadedAt  time.Time
}

// Ledger is the upload record. A nil *Ledger records nothing and reports
// nothing uploaded.
type Ledger struct {
	db    *sql.DB
	runID string
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, runID: uuid.NewString()}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// RunID identifies the uploads recorded by this process.
func (l *Ledger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			destination TEXT NOT NULL,
			name TEXT NOT NULL,
			checksum TEXT NOT NULL,
			remote_id TEXT,
			web_view_link TEXT,
			uploaded_at TEXT NOT NULL,
			UNIQUE(destination, name, checksum)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_run_id ON uploads(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Lookup returns the recorded upload of name with checksum into destination.
func (l *Ledger) Lookup(ctx context.Context, destination, name, checksum string) (Upload, bool, error) {
	if l == nil {
		return Upload{}, false, nil
	}
	u := Upload{Destination: destination, Name: name, Checksum: checksum}
	var at string
	var remoteID, link sql.NullString
	err := l.db.QueryRowContext(ctx,
		`SELECT run_id, remote_id, web_view_link, uploaded_at FROM uploads
		 WHERE destination = ? AND name = ? AND checksum = ?`,
		destination, name, checksum,
	).Scan(&u.RunID, &remoteID, &link, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, false, nil
	}
	if err != nil {
		return Upload{}, false, fmt.Errorf("querying ledger: %w", err)
	}
	u.RemoteID = remoteID.String
	u.WebViewLink = link.String
	u.UploadedAt, _ = time.Parse(time.RFC3339, at)
	return u, true, nil
}

// Record stores an upload made in this run. Recording the same destination,
// name and checksum again replaces the earlier row.
func (l *Ledger) Record(ctx context.Context, u Upload) error {
	if l == nil {
		return nil
	}
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploads
		 (run_id, destination, name, checksum, remote_id, web_view_link, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.runID, u.Destination, u.Name, u.Checksum, u.RemoteID, u.WebViewLink,
		u.UploadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording upload of %s: %w", u.Name, err)
	}
	return nil
}

// Count returns the number of uploads recorded by runID ("" for all runs).
func (l *Ledger) Count(ctx context.Context, runID string) (int, error) {
	if l == nil {
		return 0, nil
	}
	var n int
	var err error
	if runID == "" {
		err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&n)
	} else {
		err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads WHERE run_id = ?`, runID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting uploads: %w", err)
	}
	return n, nil
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
