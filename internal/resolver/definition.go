package resolver

import (
	"github.com/vk/proformagrid/internal/generator"
)

// Definition is one source of named quantities. The set of implementations is
// closed: *LineItem, *CategoryTotal and *GeneratorOutputs.
type Definition interface {
	// Names lists the quantities the definition produces.
	Names() []string
	definition()
}

// LineItem is an explicitly declared quantity. For a year, a non-null entry in
// Values wins, then Constant, then Formula; otherwise the value is null.
type LineItem struct {
	Name     string
	Category string
	Values   map[int]*float64
	Constant *float64
	Formula  string
}

// CategoryTotal is the synthesized sum of the line items in Category.
type CategoryTotal struct {
	Name     string
	Category string
}

// GeneratorOutputs is every output of one multi-output generator.
type GeneratorOutputs struct {
	Generator generator.Generator
}

func (d *LineItem) Names() []string         { return []string{d.Name} }
func (d *CategoryTotal) Names() []string    { return []string{d.Name} }
func (d *GeneratorOutputs) Names() []string { return d.Generator.Outputs() }

func (*LineItem) definition()         {}
func (*CategoryTotal) definition()    {}
func (*GeneratorOutputs) definition() {}
