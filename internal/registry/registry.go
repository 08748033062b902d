package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/proformagrid/internal/generator"
)

// Module is the interface that all generator modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory builds a generator named name from its decoded block parameters.
// Implementations should read every parameter they support so that
// Params.Unused can report the rest.
type Factory func(name string, params *generator.Params) (generator.Generator, error)

// Registry holds the generator factories for a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty Registry.
func New(modules ...Module) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterGenerator registers the factory for a generator kind.
func (r *Registry) RegisterGenerator(kind string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("generator kind '%s' already registered", kind))
	}
	slog.Debug("Registering generator kind.", "kind", kind)
	r.factories[kind] = f
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
