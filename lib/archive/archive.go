// Package archive persists raw upstream responses to disk and keeps a
// sqlite index over them. Archived pages are the only way to debug a
// parse that went wrong after the fact, the live site will have moved
// on by then.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"renfe-backend/lib/sqliteutil"
)

//go:embed schema.sql
var schema string

// Entry is one indexed archived response.
type Entry struct {
	Id         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Suffix     string    `json:"suffix"`
	StatusCode int       `json:"status_code"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store struct {
	dir string
	db  *sql.DB
	now func() time.Time
}

// NewStore opens an archive rooted at dir, creating the directory and
// the index database as needed.
func NewStore(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	db, err := sqliteutil.OpenDB(schema, filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive index: %w", err)
	}
	return &Store{dir: dir, db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveHTML writes one response body under
// "<yymmdd_hhmmss>_<status>_<suffix>" and indexes it. It returns the
// full path of the written file.
func (s *Store) SaveHTML(ctx context.Context, content string, statusCode int, suffix string) (string, error) {
	return s.save(ctx, []byte(content), statusCode, suffix)
}

// SaveJSON writes v pretty-printed next to its HTML sibling, swapping
// the suffix's ".log" extension for ".json".
func (s *Store) SaveJSON(ctx context.Context, v any, statusCode int, suffix string) (string, error) {
	contents, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode archived json: %w", err)
	}
	return s.save(ctx, contents, statusCode, strings.ReplaceAll(suffix, ".log", ".json"))
}

func (s *Store) save(ctx context.Context, contents []byte, statusCode int, suffix string) (string, error) {
	timestamp := s.now().Format("060102_150405")
	filename := fmt.Sprintf("%s_%d_%s", timestamp, statusCode, suffix)
	path := filepath.Join(s.dir, filename)

	err := os.WriteFile(path, contents, 0666)
	if err != nil {
		return "", fmt.Errorf("failed to write archived response: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO responses (filename, suffix, status_code, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		filename, suffix, statusCode, len(contents), s.now().Format(time.RFC3339),
	)
	if err != nil {
		// the file on disk is the source of truth, a failed index write
		// must not lose the response
		slog.ErrorContext(ctx, "failed to index archived response", "filename", filename, "err", err)
	}

	slog.InfoContext(ctx, "archived response", "filename", filename, "status", statusCode)
	return path, nil
}

// ListRecent returns the most recently archived entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, filename, suffix, status_code, size_bytes, created_at
		FROM responses ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive index: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var createdAt string
		err := rows.Scan(
			&entry.Id, &entry.Filename, &entry.Suffix,
			&entry.StatusCode, &entry.SizeBytes, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at in archive index: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
