// Package resolver computes the value matrix of a model: every quantity for
// every year, in dependency order.
//
// Years are resolved in ascending order. Within a year the resolver makes
// repeated passes over the definitions that are still unresolved; a definition
// whose inputs are not available yet is retried on the next pass. A pass that
// makes no progress ends resolution with a *CircularReferenceError. The final
// matrix does not depend on the order in which definitions are given.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/formula"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
)

// GenerateValueMatrix resolves defs for every year in years, which must be
// consecutive and ascending. categories and quantities are the model
// metadata; every quantity must be produced for every year.
func GenerateValueMatrix(
	ctx context.Context,
	years []int,
	defs []Definition,
	categories []metadata.Category,
	quantities []metadata.Quantity,
) (matrix.Matrix, error) {
	logger := ctxlog.FromContext(ctx)

	if err := matrix.CheckYears(years); err != nil {
		return nil, err
	}

	r := newRun(categories, quantities)
	logger.Debug("Generating value matrix.", "years", len(years), "definitions", len(defs), "quantities", len(quantities))

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.resolveYear(ctx, year, defs); err != nil {
			return nil, err
		}
	}
	return r.m, nil
}

// run holds the state of a single GenerateValueMatrix call.
type run struct {
	m          matrix.Matrix
	known      map[string]struct{}
	knownList  []string
	categories map[string]struct{}
	catNames   []string
	members    map[string][]string
	parsed     map[string]*formula.Formula
}

func newRun(categories []metadata.Category, quantities []metadata.Quantity) *run {
	r := &run{
		m:          matrix.Matrix{},
		known:      make(map[string]struct{}, len(quantities)),
		knownList:  metadata.Names(quantities),
		categories: make(map[string]struct{}, len(categories)),
		members:    make(map[string][]string),
		parsed:     make(map[string]*formula.Formula),
	}
	for _, q := range quantities {
		r.known[q.Name] = struct{}{}
		if q.SourceType == metadata.SourceLineItem && q.Category != "" {
			r.members[q.Category] = append(r.members[q.Category], q.Name)
		}
	}
	for _, c := range categories {
		r.categories[c.Name] = struct{}{}
		r.catNames = append(r.catNames, c.Name)
	}
	sort.Strings(r.catNames)
	return r
}

func (r *run) resolveYear(ctx context.Context, year int, defs []Definition) error {
	logger := ctxlog.FromContext(ctx).With("year", year)

	r.m[year] = matrix.Row{}
	if err := matrix.Validate(r.m); err != nil {
		return err
	}

	pending := defs
	for pass := 1; len(pending) > 0; pass++ {
		var retry []Definition
		for _, def := range pending {
			err := r.resolve(def, year)
			if err == nil {
				continue
			}
			if !r.retryable(err, year) {
				return r.fatal(def, year, err)
			}
			retry = append(retry, def)
		}
		logger.Debug("Resolution pass finished.", "pass", pass, "resolved", len(pending)-len(retry), "remaining", len(retry))

		if len(retry) == len(pending) {
			return &CircularReferenceError{Year: year, Names: namesOf(retry)}
		}
		pending = retry
	}

	var missing []string
	for _, name := range r.knownList {
		if _, ok := r.m[year][name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFromMatrixError{Year: year, Names: missing}
	}
	return nil
}

func (r *run) resolve(def Definition, year int) error {
	switch d := def.(type) {
	case *LineItem:
		v, err := r.lineItem(d, year)
		if err != nil {
			return err
		}
		return r.store(year, map[string]*float64{d.Name: v})
	case *CategoryTotal:
		total, err := r.CategoryTotal(d.Category, year)
		if err != nil {
			return err
		}
		return r.store(year, map[string]*float64{d.Name: &total})
	case *GeneratorOutputs:
		return r.generator(d.Generator, year)
	default:
		return fmt.Errorf("unknown definition type %T", def)
	}
}

func (r *run) lineItem(d *LineItem, year int) (*float64, error) {
	if v, ok := d.Values[year]; ok && v != nil {
		return matrix.Num(*v), nil
	}
	if d.Constant != nil {
		return matrix.Num(*d.Constant), nil
	}
	if d.Formula == "" {
		return nil, nil
	}

	f, ok := r.parsed[d.Formula]
	if !ok {
		var err error
		if f, err = formula.Parse(d.Formula); err != nil {
			return nil, err
		}
		r.parsed[d.Formula] = f
	}
	v, err := f.Eval(r, year)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *run) generator(g generator.Generator, year int) error {
	if err := matrix.Validate(r.m); err != nil {
		return err
	}
	values, err := g.Values(r.m, year)
	if err != nil {
		return err
	}

	outputs := g.Outputs()
	row := make(map[string]*float64, len(outputs))
	for _, name := range outputs {
		v, ok := values[name]
		if !ok {
			return fmt.Errorf("generator %q did not produce output %q", g.Name(), name)
		}
		row[name] = matrix.Num(v)
	}
	if len(values) != len(outputs) {
		return fmt.Errorf("generator %q produced %d values for %d declared outputs", g.Name(), len(values), len(outputs))
	}
	return r.store(year, row)
}

// store writes values into the row for year. Nothing is written if any name
// already has a value.
func (r *run) store(year int, values map[string]*float64) error {
	row := r.m[year]
	for name := range values {
		if _, ok := row[name]; ok {
			return &DuplicateValueError{Name: name, Year: year}
		}
	}
	for name, v := range values {
		row[name] = v
	}
	return nil
}

// Value implements formula.Lookup.
func (r *run) Value(name string, year int) (*float64, bool) {
	return r.m.Value(name, year)
}

// CategoryTotal implements formula.Lookup. Null members count as zero.
func (r *run) CategoryTotal(category string, year int) (float64, error) {
	if _, ok := r.categories[category]; !ok {
		return 0, &formula.CategoryNotFoundError{Category: category, Available: r.catNames}
	}
	var (
		total   float64
		missing []string
	)
	for _, name := range r.members[category] {
		v, ok := r.m.Value(name, year)
		switch {
		case !ok:
			missing = append(missing, name)
		case v != nil:
			total += *v
		}
	}
	if len(missing) > 0 {
		return 0, &pendingCategoryError{Category: category, Year: year, Missing: missing}
	}
	return total, nil
}

// retryable reports whether err only means that an input has not been
// resolved yet in the current year.
func (r *run) retryable(err error, year int) bool {
	var pending *pendingCategoryError
	if errors.As(err, &pending) {
		return true
	}
	var notFound *formula.NotFoundError
	if errors.As(err, &notFound) {
		return r.isKnown(notFound.Name) && notFound.Year == year
	}
	var missingParam *generator.MissingParamError
	if errors.As(err, &missingParam) {
		return r.isKnown(missingParam.Ref) && missingParam.Year == year
	}
	return false
}

// fatal converts a non-retryable failure into the error reported to callers.
func (r *run) fatal(def Definition, year int, err error) error {
	referrer := definitionName(def)

	var (
		name    string
		refYear int
		found   bool
	)
	var notFound *formula.NotFoundError
	var missingParam *generator.MissingParamError
	switch {
	case errors.As(err, &notFound):
		name, refYear, found = notFound.Name, notFound.Year, true
	case errors.As(err, &missingParam):
		name, refYear, found = missingParam.Ref, missingParam.Year, true
	}
	if found {
		if !r.isKnown(name) {
			return &UndefinedReferenceError{
				Referrer:    referrer,
				Name:        name,
				Year:        year,
				Suggestions: formula.Suggest(name, r.knownList),
			}
		}
		return &ReferenceError{Referrer: referrer, Name: name, Year: refYear}
	}

	var dup *DuplicateValueError
	if errors.As(err, &dup) {
		return err
	}
	return &ResolutionError{Name: referrer, Year: year, Err: err}
}

func (r *run) isKnown(name string) bool {
	_, ok := r.known[name]
	return ok
}

func definitionName(def Definition) string {
	if g, ok := def.(*GeneratorOutputs); ok {
		return g.Generator.Name()
	}
	if names := def.Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

func namesOf(defs []Definition) []string {
	var names []string
	for _, def := range defs {
		names = append(names, def.Names()...)
	}
	sort.Strings(names)
	return names
}
