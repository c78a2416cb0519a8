// Package history keeps a log of renders in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Render outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one recorded render.
type Entry struct {
	ID        string
	Scene     string
	Mode      string
	Output    string
	Frames    int
	Bytes     int
	Duration  time.Duration
	Status    string
	Error     string
	CreatedAt time.Time
}

// Store is a SQLite-backed render history. WAL mode lets the history
// command read while a render is writing.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts e. A missing ID or CreatedAt is filled in and the final
// entry is returned.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Status == "" {
		e.Status = StatusOK
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (id, scene, mode, output, frames, bytes, duration_ms, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Scene, e.Mode, e.Output, e.Frames, e.Bytes,
		e.Duration.Milliseconds(), e.Status, e.Error, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return e, fmt.Errorf("record render %s: %w", e.ID, err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scene, mode, output, frames, bytes, duration_ms, status, error, created_at
		FROM renders ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms, created int64
		if err := rows.Scan(&e.ID, &e.Scene, &e.Mode, &e.Output, &e.Frames, &e.Bytes, &ms, &e.Status, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
