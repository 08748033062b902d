package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a financial model
// definition, merged from every loaded file.
type Model struct {
	Years       []int
	Categories  []*Category
	LineItems   []*LineItem
	Generators  []*Generator
	Constraints []*Constraint
}

// Category is the format-agnostic representation of a `category` block.
type Category struct {
	Name         string
	Label        string
	IncludeTotal bool
	TotalLabel   string
}

// LineItem is the format-agnostic representation of a `line_item` block.
// Values holds per-year hardcoded values; a nil entry is an explicit null.
type LineItem struct {
	Name        string
	Label       string
	Category    string
	Values      map[int]*float64
	Constant    *float64
	Formula     string
	ValueFormat string
}

// Generator is the format-agnostic representation of a `generator` block.
// Params holds every attribute of the block, keyed by name, for the
// generator's own constructor to decode.
type Generator struct {
	Kind   string
	Name   string
	Label  string
	Params map[string]cty.Value
}

// Constraint is the format-agnostic representation of a `constraint` block.
// Exactly one of Target and Targets is set.
type Constraint struct {
	Name      string
	Label     string
	LineItem  string
	Operator  string
	Target    *float64
	Targets   map[int]float64
	Tolerance float64
}

// YearRange returns the inclusive list of years from start to end.
func YearRange(start, end int) ([]int, error) {
	if end < start {
		return nil, fmt.Errorf("end year %d is before start year %d", end, start)
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years, nil
}

// ResolveYears returns the model years from either an explicit list or an
// inclusive start and end year. Exactly one form must be used.
func ResolveYears(years []int, start, end *int) ([]int, error) {
	hasRange := start != nil || end != nil
	switch {
	case len(years) > 0 && hasRange:
		return nil, fmt.Errorf("model must use either years or start_year and end_year, not both")
	case len(years) > 0:
		return append([]int(nil), years...), nil
	case start != nil && end != nil:
		return YearRange(*start, *end)
	case hasRange:
		return nil, fmt.Errorf("model must set both start_year and end_year")
	default:
		return nil, fmt.Errorf("model must declare years")
	}
}

// Merge appends the definitions of other to m. Years may be declared in only
// one of the merged sources.
func (m *Model) Merge(other *Model) error {
	if len(other.Years) > 0 {
		if len(m.Years) > 0 {
			return fmt.Errorf("model years declared more than once")
		}
		m.Years = append([]int(nil), other.Years...)
	}
	m.Categories = append(m.Categories, other.Categories...)
	m.LineItems = append(m.LineItems, other.LineItems...)
	m.Generators = append(m.Generators, other.Generators...)
	m.Constraints = append(m.Constraints, other.Constraints...)
	return nil
}
