// Package store persists generated value matrices as named snapshots. A
// snapshot is immutable once saved and is addressed by a random UUID.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/matrix"
)

// ErrNotFound is returned by Load when no snapshot has the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// Info identifies a saved snapshot.
type Info struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Snapshot is a saved value matrix.
type Snapshot struct {
	Info
	Matrix matrix.Matrix
}

// Store saves and loads snapshots.
type Store interface {
	// Save stores m under name and returns the new snapshot's identity.
	Save(ctx context.Context, name string, m matrix.Matrix) (Info, error)
	// Load returns the snapshot with the given ID or ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	// List returns every snapshot, newest first.
	List(ctx context.Context) ([]Info, error)
	Close() error
}

// Open connects to the store named by dsn. Supported forms are
// sqlite://PATH and postgres://... (or postgresql://...).
func Open(ctx context.Context, dsn string) (Store, error) {
	scheme, _, _ := strings.Cut(dsn, "://")
	ctx = ctxlog.With(ctx, "store", scheme)
	switch scheme {
	case "sqlite":
		s, err := OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		p, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unsupported store %q: use sqlite:// or postgres://", scheme)
}

func newInfo(name string) Info {
	return Info{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
}

func encode(m matrix.Matrix) ([]byte, error) {
	if err := matrix.Validate(m); err != nil {
		return nil, fmt.Errorf("refusing to store invalid matrix: %w", err)
	}
	data, err := matrix.EncodeJSON(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode matrix: %w", err)
	}
	return data, nil
}
