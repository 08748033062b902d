package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/constraint"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/formula"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
	"github.com/vk/proformagrid/internal/registry"
	"github.com/vk/proformagrid/internal/resolver"
)

// Metadata describes every category and quantity of a model.
type Metadata struct {
	Categories []metadata.Category
	Quantities []metadata.Quantity
}

// Engine is a validated, ready-to-generate model. It is immutable after New
// and safe for concurrent use.
type Engine struct {
	model       *config.Model
	generators  []generator.Generator
	meta        Metadata
	constraints []*constraint.Constraint
	defs        []resolver.Definition
}

// New builds the generators of model from reg, derives its metadata and
// checks its constraints. Every configuration problem is reported at once.
func New(ctx context.Context, model *config.Model, reg *registry.Registry) (*Engine, error) {
	logger := ctxlog.FromContext(ctx)

	if err := matrix.CheckYears(model.Years); err != nil {
		return nil, fmt.Errorf("invalid model years: %w", err)
	}

	gens, err := reg.BuildAll(ctx, model.Generators)
	if err != nil {
		return nil, err
	}
	metaGens := make([]metadata.Generator, len(gens))
	for i, g := range gens {
		metaGens[i] = g
	}

	var result *multierror.Error
	categories, err := metadata.CollectCategories(model.Categories, metaGens)
	if err != nil {
		result = multierror.Append(result, err)
	}
	quantities, err := metadata.CollectQuantities(model.LineItems, categories, metaGens)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("model configuration failed: %w", err)
	}

	constraints, err := constraint.BuildAll(model.Constraints, metadata.Names(quantities))
	if err != nil {
		return nil, fmt.Errorf("constraint configuration failed: %w", err)
	}

	e := &Engine{
		model:       model,
		generators:  gens,
		meta:        Metadata{Categories: categories, Quantities: quantities},
		constraints: constraints,
		defs:        definitions(model.LineItems, categories, gens),
	}
	logger.Debug("Engine ready.",
		"years", len(model.Years),
		"quantities", len(quantities),
		"generators", len(gens),
		"constraints", len(constraints),
	)
	return e, nil
}

func definitions(items []*config.LineItem, cats []metadata.Category, gens []generator.Generator) []resolver.Definition {
	defs := make([]resolver.Definition, 0, len(items)+len(cats)+len(gens))
	for _, item := range items {
		defs = append(defs, &resolver.LineItem{
			Name:     item.Name,
			Category: item.Category,
			Values:   item.Values,
			Constant: item.Constant,
			Formula:  item.Formula,
		})
	}
	for _, c := range cats {
		if c.IncludeTotal {
			defs = append(defs, &resolver.CategoryTotal{Name: metadata.TotalName(c.Name), Category: c.Name})
		}
	}
	for _, g := range gens {
		defs = append(defs, &resolver.GeneratorOutputs{Generator: g})
	}
	return defs
}

// Years returns the model years.
func (e *Engine) Years() []int {
	return append([]int(nil), e.model.Years...)
}

// Metadata returns the categories and quantities of the model.
func (e *Engine) Metadata() Metadata {
	return Metadata{
		Categories: append([]metadata.Category(nil), e.meta.Categories...),
		Quantities: append([]metadata.Quantity(nil), e.meta.Quantities...),
	}
}

// Generators returns the constructed generators in declaration order.
func (e *Engine) Generators() []generator.Generator {
	return append([]generator.Generator(nil), e.generators...)
}

// Generate computes the value matrix for every model year.
func (e *Engine) Generate(ctx context.Context) (matrix.Matrix, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Generating value matrix.", "years", len(e.model.Years), "quantities", len(e.meta.Quantities))

	m, err := resolver.GenerateValueMatrix(ctx, e.model.Years, e.defs, e.meta.Categories, e.meta.Quantities)
	if err != nil {
		return nil, err
	}
	logger.Info("Value matrix generated.")
	return m, nil
}

// Validate checks every formula and the same-year dependency graph without
// computing values. It reports all formula problems together.
func (e *Engine) Validate() error {
	known := metadata.Names(e.meta.Quantities)
	declared := make(map[string]struct{}, len(e.meta.Categories))
	for _, c := range e.meta.Categories {
		declared[c.Name] = struct{}{}
	}

	var result *multierror.Error
	for _, item := range e.model.LineItems {
		if item.Formula == "" {
			continue
		}
		if err := formula.Validate(item.Formula, item.Name, known); err != nil {
			result = multierror.Append(result, fmt.Errorf("line item %q: %w", item.Name, err))
			continue
		}
		f, err := formula.Parse(item.Formula)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		for _, cat := range f.Categories() {
			if _, ok := declared[cat]; !ok {
				result = multierror.Append(result, fmt.Errorf("line item %q: %w", item.Name,
					&formula.CategoryNotFoundError{Category: cat, Available: categoryNames(e.meta.Categories)}))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("formula validation failed: %w", err)
	}

	g, err := e.Graph()
	if err != nil {
		return err
	}
	return g.DetectCycles()
}

// CheckConstraints evaluates every constraint against m.
func (e *Engine) CheckConstraints(m matrix.Matrix) ([]constraint.Result, error) {
	return constraint.EvaluateAll(e.constraints, m)
}

// DependencyTree renders the same-year dependencies of the named quantity.
func (e *Engine) DependencyTree(name string) (string, error) {
	g, err := e.Graph()
	if err != nil {
		return "", err
	}
	if !g.Has(name) {
		msg := fmt.Sprintf("quantity %q is not defined in the model", name)
		if s := formula.Suggest(name, metadata.Names(e.meta.Quantities)); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		return "", errors.New(msg)
	}
	tree, err := g.Tree(name)
	if err != nil {
		return "", err
	}
	return tree.String(), nil
}

func categoryNames(cats []metadata.Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}
