// Package metadata derives the flat list of named quantities, and the
// categories they belong to, from a model's declared line items, categories
// and generators.
package metadata

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/config"
)

// SourceType records which kind of declaration produces a quantity.
type SourceType string

const (
	SourceLineItem  SourceType = "line_item"
	SourceCategory  SourceType = "category"
	SourceGenerator SourceType = "generator"
)

// TotalsCategory is the category of every synthesized category total.
const TotalsCategory = "category_totals"

// DefaultValueFormat is applied to quantities that do not declare one.
const DefaultValueFormat = "no_decimals"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var valueFormats = map[string]struct{}{
	"str":                  {},
	"no_decimals":          {},
	"two_decimals":         {},
	"percent":              {},
	"percent_one_decimal":  {},
	"percent_two_decimals": {},
}

// Category describes a category known to the model.
type Category struct {
	Name            string
	Label           string
	IncludeTotal    bool
	TotalLabel      string
	SystemGenerated bool
}

// Quantity describes a single named quantity and where it comes from.
type Quantity struct {
	Name        string
	Label       string
	SourceType  SourceType
	SourceName  string
	Category    string
	ValueFormat string
}

// Generator is the view of a multi-output generator the collector needs.
type Generator interface {
	Name() string
	Outputs() []string
}

// DuplicateNamesError lists every quantity name declared more than once.
type DuplicateNamesError struct {
	Names []string
}

func (e *DuplicateNamesError) Error() string {
	return fmt.Sprintf("duplicate quantity names: %s", strings.Join(e.Names, ", "))
}

// TotalName returns the name of the synthesized total of category.
func TotalName(category string) string {
	return "total_" + category
}

// ValidName reports whether name may be used for a quantity or category.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// CollectCategories returns the declared categories followed by one
// system-generated category per generator, and the totals category when any
// declared category requests a total.
func CollectCategories(cats []*config.Category, gens []Generator) ([]Category, error) {
	var result *multierror.Error
	seen := make(map[string]struct{})
	var out []Category
	anyTotal := false

	for _, c := range cats {
		switch {
		case !ValidName(c.Name):
			result = multierror.Append(result, fmt.Errorf("category %q: name must match %s", c.Name, namePattern))
			continue
		case c.Name == TotalsCategory:
			result = multierror.Append(result, fmt.Errorf("category %q: name is reserved", c.Name))
			continue
		}
		if _, dup := seen[c.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("category %q is declared more than once", c.Name))
			continue
		}
		seen[c.Name] = struct{}{}

		label := c.Label
		if label == "" {
			label = c.Name
		}
		totalLabel := c.TotalLabel
		if totalLabel == "" {
			totalLabel = "Total " + label
		}
		anyTotal = anyTotal || c.IncludeTotal
		out = append(out, Category{Name: c.Name, Label: label, IncludeTotal: c.IncludeTotal, TotalLabel: totalLabel})
	}

	for _, g := range gens {
		if _, ok := seen[g.Name()]; ok {
			continue
		}
		seen[g.Name()] = struct{}{}
		out = append(out, Category{Name: g.Name(), Label: g.Name() + " (Generator)", SystemGenerated: true})
	}

	if anyTotal {
		out = append(out, Category{Name: TotalsCategory, Label: "Category Totals", SystemGenerated: true})
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectQuantities returns every named quantity of the model: line items in
// declaration order, then category totals, then generator outputs. Any name
// produced more than once fails with *DuplicateNamesError listing them all.
func CollectQuantities(items []*config.LineItem, cats []Category, gens []Generator) ([]Quantity, error) {
	var result *multierror.Error
	known := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		known[c.Name] = struct{}{}
	}

	var out []Quantity
	for _, item := range items {
		if !ValidName(item.Name) {
			result = multierror.Append(result, fmt.Errorf("line item %q: name must match %s", item.Name, namePattern))
		}
		if item.Category != "" {
			if _, ok := known[item.Category]; !ok {
				result = multierror.Append(result, fmt.Errorf("line item %q: category %q is not declared", item.Name, item.Category))
			}
		}
		format := item.ValueFormat
		if format == "" {
			format = DefaultValueFormat
		}
		if _, ok := valueFormats[format]; !ok {
			result = multierror.Append(result, fmt.Errorf("line item %q: unknown value format %q", item.Name, item.ValueFormat))
		}
		label := item.Label
		if label == "" {
			label = item.Name
		}
		out = append(out, Quantity{
			Name:        item.Name,
			Label:       label,
			SourceType:  SourceLineItem,
			SourceName:  item.Name,
			Category:    item.Category,
			ValueFormat: format,
		})
	}

	for _, c := range cats {
		if !c.IncludeTotal {
			continue
		}
		out = append(out, Quantity{
			Name:        TotalName(c.Name),
			Label:       c.TotalLabel,
			SourceType:  SourceCategory,
			SourceName:  c.Name,
			Category:    TotalsCategory,
			ValueFormat: DefaultValueFormat,
		})
	}

	for _, g := range gens {
		for _, output := range g.Outputs() {
			out = append(out, Quantity{
				Name:        output,
				Label:       output,
				SourceType:  SourceGenerator,
				SourceName:  g.Name(),
				Category:    g.Name(),
				ValueFormat: DefaultValueFormat,
			})
		}
	}

	if dups := duplicates(out); len(dups) > 0 {
		result = multierror.Append(result, &DuplicateNamesError{Names: dups})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Names returns the names of quantities in order.
func Names(quantities []Quantity) []string {
	names := make([]string, len(quantities))
	for i, q := range quantities {
		names[i] = q.Name
	}
	return names
}

func duplicates(quantities []Quantity) []string {
	counts := make(map[string]int, len(quantities))
	for _, q := range quantities {
		counts[q.Name]++
	}
	var dups []string
	for name, n := range counts {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}
