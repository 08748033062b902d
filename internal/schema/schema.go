// Package schema declares the gohcl decoding structs for model files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a model file. Every block type
// may appear in any file of a model directory.
type File struct {
	Model       *Model        `hcl:"model,block"`
	Categories  []*Category   `hcl:"category,block"`
	LineItems   []*LineItem   `hcl:"line_item,block"`
	Generators  []*Generator  `hcl:"generator,block"`
	Constraints []*Constraint `hcl:"constraint,block"`
}

// Model represents the `model` block. Years is an explicit list; StartYear
// and EndYear are an inclusive range. Exactly one form must be used.
type Model struct {
	Years     []int `hcl:"years,optional"`
	StartYear *int  `hcl:"start_year,optional"`
	EndYear   *int  `hcl:"end_year,optional"`
}

// Category represents a `category` block.
type Category struct {
	Name         string `hcl:"name,label"`
	Label        string `hcl:"label,optional"`
	IncludeTotal bool   `hcl:"include_total,optional"`
	TotalLabel   string `hcl:"total_label,optional"`
}

// LineItem represents a `line_item` block. Values is an object keyed by year
// whose entries may be null.
type LineItem struct {
	Name        string         `hcl:"name,label"`
	Label       string         `hcl:"label,optional"`
	Category    string         `hcl:"category,optional"`
	Values      hcl.Expression `hcl:"values,optional"`
	Constant    *float64       `hcl:"constant,optional"`
	Formula     string         `hcl:"formula,optional"`
	ValueFormat string         `hcl:"value_format,optional"`
}

// Generator represents a `generator "<kind>" "<name>"` block. All attributes
// other than label are passed to the generator's constructor.
type Generator struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Constraint represents a `constraint` block. Target is a number or an object
// keyed by year.
type Constraint struct {
	Name      string         `hcl:"name,label"`
	Label     string         `hcl:"label,optional"`
	LineItem  string         `hcl:"line_item"`
	Operator  string         `hcl:"operator"`
	Target    hcl.Expression `hcl:"target"`
	Tolerance *float64       `hcl:"tolerance,optional"`
}
