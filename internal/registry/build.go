package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/formula"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/metadata"
)

// UnknownKindError is returned for a generator block whose kind has no
// registered factory.
type UnknownKindError struct {
	Kind        string
	Name        string
	Suggestions []string
}

func (e *UnknownKindError) Error() string {
	msg := fmt.Sprintf("generator %q: unknown kind %q", e.Name, e.Kind)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestions[0])
	}
	return msg
}

// Build constructs the generator described by def.
func (r *Registry) Build(def *config.Generator) (generator.Generator, error) {
	if !metadata.ValidName(def.Name) {
		return nil, fmt.Errorf("generator %q: name must contain only letters, digits, '_' or '-'", def.Name)
	}
	factory, ok := r.factories[def.Kind]
	if !ok {
		return nil, &UnknownKindError{Kind: def.Kind, Name: def.Name, Suggestions: formula.Suggest(def.Kind, r.Kinds())}
	}

	params := generator.NewParams(def.Name, def.Params)
	gen, err := factory(def.Name, params)
	if err != nil {
		return nil, err
	}
	if err := params.Unused(); err != nil {
		return nil, err
	}
	return gen, nil
}

// BuildAll constructs every generator of the model, reporting all failures.
func (r *Registry) BuildAll(ctx context.Context, defs []*config.Generator) ([]generator.Generator, error) {
	logger := ctxlog.FromContext(ctx)
	var result *multierror.Error
	gens := make([]generator.Generator, 0, len(defs))

	for _, def := range defs {
		gen, err := r.Build(def)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		logger.Debug("Generator constructed.", "kind", def.Kind, "name", def.Name, "outputs", strings.Join(gen.Outputs(), ","))
		gens = append(gens, gen)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("generator configuration failed: %w", err)
	}
	return gens, nil
}
