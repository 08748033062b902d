package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/matrix"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	matrix     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store requires a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("SQLite snapshot store opened.", "path", path)
	return &SQLite{db: db, path: path}, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, name string, m matrix.Matrix) (Info, error) {
	data, err := encode(m)
	if err != nil {
		return Info{}, err
	}
	info := newInfo(name)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, created_at, matrix) VALUES (?, ?, ?, ?)`,
		info.ID.String(), info.Name, info.CreatedAt.UnixNano(), string(data),
	)
	if err != nil {
		return Info{}, fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot saved.", "id", info.ID, "name", name)
	return info, nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var (
		name    string
		created int64
		data    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, created_at, matrix FROM snapshots WHERE id = ?`, id.String(),
	).Scan(&name, &created, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}

	m, err := matrix.DecodeJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return &Snapshot{
		Info:   Info{ID: id, Name: name, CreatedAt: time.Unix(0, created).UTC()},
		Matrix: m,
	}, nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			rawID   string
			info    Info
			created int64
		)
		if err := rows.Scan(&rawID, &info.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if info.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("invalid snapshot id %q: %w", rawID, err)
		}
		info.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}
