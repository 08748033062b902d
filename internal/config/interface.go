package config

import (
	"context"
)

// Loader is the interface for a format-specific model loader.
type Loader interface {
	// Load reads every model file found under paths and merges their
	// contents into a single format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
