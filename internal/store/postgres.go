package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/matrix"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS proformagrid_snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	matrix     JSONB NOT NULL
)`

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to dsn and creates the snapshot table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Postgres snapshot store opened.", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	return &Postgres{pool: pool}, nil
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, name string, m matrix.Matrix) (Info, error) {
	data, err := encode(m)
	if err != nil {
		return Info{}, err
	}
	info := newInfo(name)
	_, err = p.pool.Exec(ctx,
		`INSERT INTO proformagrid_snapshots (id, name, created_at, matrix) VALUES ($1, $2, $3, $4)`,
		info.ID.String(), info.Name, info.CreatedAt, data,
	)
	if err != nil {
		return Info{}, fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot saved.", "id", info.ID, "name", name)
	return info, nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var (
		name    string
		created time.Time
		data    []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT name, created_at, matrix FROM proformagrid_snapshots WHERE id = $1`, id.String(),
	).Scan(&name, &created, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}

	m, err := matrix.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return &Snapshot{
		Info:   Info{ID: id, Name: name, CreatedAt: created.UTC()},
		Matrix: m,
	}, nil
}

// List implements Store.
func (p *Postgres) List(ctx context.Context) ([]Info, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, created_at FROM proformagrid_snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			rawID string
			info  Info
		)
		if err := rows.Scan(&rawID, &info.Name, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if info.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("invalid snapshot id %q: %w", rawID, err)
		}
		info.CreatedAt = info.CreatedAt.UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close implements Store.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
