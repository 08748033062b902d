// Package constraint checks declared business rules against a generated value
// matrix. Constraints only report; they never change values.
package constraint

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
)

// Operator compares an actual value with a target.
type Operator string

const (
	Equal          Operator = "eq"
	Less           Operator = "lt"
	LessOrEqual    Operator = "le"
	Greater        Operator = "gt"
	GreaterOrEqual Operator = "ge"
	NotEqual       Operator = "ne"
)

var operators = []Operator{Equal, Less, LessOrEqual, Greater, GreaterOrEqual, NotEqual}

// ErrNoTarget is returned by Evaluate for a year that has no target.
var ErrNoTarget = errors.New("constraint has no target for year")

// Constraint compares one quantity with a fixed or per-year target.
type Constraint struct {
	Name      string
	Label     string
	Quantity  string
	Operator  Operator
	Tolerance float64

	target  *float64
	targets map[int]float64
}

// New validates def and returns the constraint.
func New(def *config.Constraint) (*Constraint, error) {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("constraint %q: "+format, append([]any{def.Name}, args...)...))
	}

	if !metadata.ValidName(def.Name) {
		fail("name must contain only letters, digits, '_' or '-'")
	}
	if def.LineItem == "" {
		fail("line_item is required")
	}
	op := Operator(def.Operator)
	if !validOperator(op) {
		fail("operator must be one of %v, got %q", operators, def.Operator)
	}
	if def.Tolerance < 0 || math.IsNaN(def.Tolerance) {
		fail("tolerance must be non-negative, got %v", def.Tolerance)
	}
	switch {
	case def.Target != nil && def.Targets != nil:
		fail("target must be a single number or a map of year to number, not both")
	case def.Target == nil && len(def.Targets) == 0:
		fail("target is required")
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	label := def.Label
	if label == "" {
		label = def.Name
	}
	c := &Constraint{Name: def.Name, Label: label, Quantity: def.LineItem, Operator: op, Tolerance: def.Tolerance}
	if def.Target != nil {
		t := *def.Target
		c.target = &t
	} else {
		c.targets = make(map[int]float64, len(def.Targets))
		for y, v := range def.Targets {
			c.targets[y] = v
		}
	}
	return c, nil
}

func validOperator(op Operator) bool {
	for _, o := range operators {
		if o == op {
			return true
		}
	}
	return false
}

// Target returns the target for year.
func (c *Constraint) Target(year int) (float64, bool) {
	if c.target != nil {
		return *c.target, true
	}
	v, ok := c.targets[year]
	return v, ok
}

// Compare applies the operator and tolerance to actual and target.
func (c *Constraint) Compare(actual, target float64) bool {
	tol := c.Tolerance
	switch c.Operator {
	case Equal:
		return math.Abs(actual-target) <= tol
	case Less:
		return actual < target-tol
	case LessOrEqual:
		return actual <= target+tol
	case Greater:
		return actual > target+tol
	case GreaterOrEqual:
		return actual >= target-tol
	case NotEqual:
		return math.Abs(actual-target) > tol
	}
	return false
}

// Evaluate reports whether the constraint holds in year.
func (c *Constraint) Evaluate(m matrix.Matrix, year int) (bool, error) {
	target, ok := c.Target(year)
	if !ok {
		return false, fmt.Errorf("constraint %q: %w %d", c.Name, ErrNoTarget, year)
	}
	v, present := m.Value(c.Quantity, year)
	if !present {
		return false, fmt.Errorf("constraint %q: quantity %q not found for year %d", c.Name, c.Quantity, year)
	}
	if v == nil {
		return false, fmt.Errorf("constraint %q: quantity %q is null for year %d", c.Name, c.Quantity, year)
	}
	return c.Compare(*v, target), nil
}

// Result is the outcome of one constraint in one year.
type Result struct {
	Constraint string
	Quantity   string
	Year       int
	Actual     float64
	Target     float64
	Operator   Operator
	Passed     bool
}

// EvaluateAll evaluates cs for every year of m that has a target. Results are
// ordered by constraint, then year.
func EvaluateAll(cs []*Constraint, m matrix.Matrix) ([]Result, error) {
	var (
		out    []Result
		result *multierror.Error
	)
	years := m.Years()
	for _, c := range cs {
		for _, year := range years {
			target, ok := c.Target(year)
			if !ok {
				continue
			}
			passed, err := c.Evaluate(m, year)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			v, _ := m.Value(c.Quantity, year)
			out = append(out, Result{
				Constraint: c.Name,
				Quantity:   c.Quantity,
				Year:       year,
				Actual:     *v,
				Target:     target,
				Operator:   c.Operator,
				Passed:     passed,
			})
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("constraint evaluation failed: %w", err)
	}
	return out, nil
}

// Failures returns the results that did not pass.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// BuildAll constructs every constraint, rejecting duplicate names and
// quantities that are not in known.
func BuildAll(defs []*config.Constraint, known []string) ([]*Constraint, error) {
	var result *multierror.Error
	names := make(map[string]struct{}, len(known))
	for _, n := range known {
		names[n] = struct{}{}
	}
	seen := make(map[string]struct{}, len(defs))
	out := make([]*Constraint, 0, len(defs))

	for _, def := range defs {
		c, err := New(def)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, dup := seen[c.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("constraint %q is declared more than once", c.Name))
			continue
		}
		seen[c.Name] = struct{}{}
		if _, ok := names[c.Quantity]; !ok {
			result = multierror.Append(result, fmt.Errorf("constraint %q: line item %q is not defined in the model", c.Name, c.Quantity))
			continue
		}
		out = append(out, c)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
