// This file translates the HCL schema structs into the format-agnostic
// model defined in the config package.

package hcl

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

func translateModel(s *schema.Model) ([]int, error) {
	years, err := config.ResolveYears(s.Years, s.StartYear, s.EndYear)
	if err != nil {
		return nil, fmt.Errorf("model block: %w", err)
	}
	return years, nil
}

func translateCategory(s *schema.Category) *config.Category {
	return &config.Category{
		Name:         s.Name,
		Label:        s.Label,
		IncludeTotal: s.IncludeTotal,
		TotalLabel:   s.TotalLabel,
	}
}

func translateLineItem(s *schema.LineItem) (*config.LineItem, error) {
	values, err := yearValues(s.Values)
	if err != nil {
		return nil, fmt.Errorf("line_item %q: values: %w", s.Name, err)
	}
	var constant *float64
	if s.Constant != nil {
		c := *s.Constant
		constant = &c
	}
	return &config.LineItem{
		Name:        s.Name,
		Label:       s.Label,
		Category:    s.Category,
		Values:      values,
		Constant:    constant,
		Formula:     s.Formula,
		ValueFormat: s.ValueFormat,
	}, nil
}

func translateGenerator(s *schema.Generator) (*config.Generator, error) {
	attrs, diags := s.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("generator %q %q: %w", s.Kind, s.Name, diags)
	}

	g := &config.Generator{Kind: s.Kind, Name: s.Name, Params: make(map[string]cty.Value, len(attrs))}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("generator %q %q: %w", s.Kind, s.Name, diags)
		}
		if name == "label" {
			label, err := convert.Convert(val, cty.String)
			if err != nil || label.IsNull() {
				return nil, fmt.Errorf("generator %q %q: label must be a string", s.Kind, s.Name)
			}
			g.Label = label.AsString()
			continue
		}
		g.Params[name] = val
	}
	return g, nil
}

func translateConstraint(s *schema.Constraint) (*config.Constraint, error) {
	c := &config.Constraint{
		Name:     s.Name,
		Label:    s.Label,
		LineItem: s.LineItem,
		Operator: s.Operator,
	}
	if s.Tolerance != nil {
		c.Tolerance = *s.Tolerance
	}

	val, diags := s.Target.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("constraint %q: target: %w", s.Name, diags)
	}
	if ty := val.Type(); !val.IsNull() && (ty.IsObjectType() || ty.IsMapType()) {
		values, err := yearValues(s.Target)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: target: %w", s.Name, err)
		}
		c.Targets = make(map[int]float64, len(values))
		for year, v := range values {
			if v == nil {
				return nil, fmt.Errorf("constraint %q: target for year %d must not be null", s.Name, year)
			}
			c.Targets[year] = *v
		}
		return c, nil
	}

	f, err := toFloat(val)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: target must be a number or a map of year to number: %w", s.Name, err)
	}
	c.Target = &f
	return c, nil
}

// yearValues evaluates an object keyed by year. Null entries become nil.
func yearValues(expr hcl.Expression) (map[int]*float64, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("must be an object keyed by year, got %s", ty.FriendlyName())
	}
	if val.LengthInt() == 0 {
		return nil, nil
	}

	out := make(map[int]*float64, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, elem := it.Element()
		year, err := strconv.Atoi(k.AsString())
		if err != nil {
			return nil, fmt.Errorf("key %q is not a year", k.AsString())
		}
		if elem.IsNull() {
			out[year] = nil
			continue
		}
		f, err := toFloat(elem)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		out[year] = &f
	}
	return out, nil
}

func toFloat(val cty.Value) (float64, error) {
	if val.IsNull() {
		return 0, fmt.Errorf("value is null")
	}
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
	var f float64
	if err := gocty.FromCtyValue(num, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// sortedYears returns the keys of values in ascending order.
func sortedYears[V any](values map[int]V) []int {
	years := make([]int, 0, len(values))
	for y := range values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
