// Package yamlmodel implements the config.Loader interface for YAML and JSON
// model files. JSON is read with the same decoder, as a subset of YAML.
//
//	years: [2024, 2025]
//	categories:
//	  - name: income
//	    include_total: true
//	line_items:
//	  - name: revenue
//	    category: income
//	    values: {2024: 100, 2025: null}
//	generators:
//	  - kind: debt
//	    name: bond
//	    principal: {2024: 1000}
//	    interest_rate: rate
//	    term: 3
package yamlmodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions read by the loader.
var Extensions = []string{".yaml", ".yml", ".json"}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML model loader.
func NewLoader() *Loader {
	return &Loader{}
}

type document struct {
	Years       []int        `yaml:"years"`
	StartYear   *int         `yaml:"start_year"`
	EndYear     *int         `yaml:"end_year"`
	Categories  []category   `yaml:"categories"`
	LineItems   []lineItem   `yaml:"line_items"`
	Generators  []yaml.Node  `yaml:"generators"`
	Constraints []constraint `yaml:"constraints"`
}

type category struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	IncludeTotal bool   `yaml:"include_total"`
	TotalLabel   string `yaml:"total_label"`
}

type lineItem struct {
	Name        string              `yaml:"name"`
	Label       string              `yaml:"label"`
	Category    string              `yaml:"category"`
	Values      map[string]*float64 `yaml:"values"`
	Constant    *float64            `yaml:"constant"`
	Formula     string              `yaml:"formula"`
	ValueFormat string              `yaml:"value_format"`
}

type constraint struct {
	Name      string    `yaml:"name"`
	Label     string    `yaml:"label"`
	LineItem  string    `yaml:"line_item"`
	Operator  string    `yaml:"operator"`
	Target    yaml.Node `yaml:"target"`
	Tolerance float64   `yaml:"tolerance"`
}

// Load reads every YAML or JSON file under paths and merges them into one
// model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML or JSON model files found in %v", paths)
	}

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read model file %s: %w", file, err)
		}
		part, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("invalid model file %s: %w", file, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("invalid model file %s: %w", file, err)
		}
	}
	if len(model.Years) == 0 {
		return nil, fmt.Errorf("no model years found in %v", paths)
	}

	logger.Debug("YAML loading complete.", "files", len(files), "line_items", len(model.LineItems), "generators", len(model.Generators))
	return model, nil
}

// Parse decodes one YAML or JSON document. Unknown top-level keys are errors.
func Parse(data []byte) (*config.Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &config.Model{}, nil
		}
		return nil, fmt.Errorf("failed to decode: %w", err)
	}

	var result *multierror.Error
	m := &config.Model{}

	if len(doc.Years) > 0 || doc.StartYear != nil || doc.EndYear != nil {
		years, err := config.ResolveYears(doc.Years, doc.StartYear, doc.EndYear)
		if err != nil {
			result = multierror.Append(result, err)
		}
		m.Years = years
	}

	for _, c := range doc.Categories {
		m.Categories = append(m.Categories, &config.Category{
			Name: c.Name, Label: c.Label, IncludeTotal: c.IncludeTotal, TotalLabel: c.TotalLabel,
		})
	}

	for _, li := range doc.LineItems {
		values, err := yearKeys(li.Values)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("line_item %q: values: %w", li.Name, err))
			continue
		}
		m.LineItems = append(m.LineItems, &config.LineItem{
			Name:        li.Name,
			Label:       li.Label,
			Category:    li.Category,
			Values:      values,
			Constant:    li.Constant,
			Formula:     li.Formula,
			ValueFormat: li.ValueFormat,
		})
	}

	for i := range doc.Generators {
		g, err := translateGenerator(&doc.Generators[i])
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.Generators = append(m.Generators, g)
	}

	for _, c := range doc.Constraints {
		con, err := translateConstraint(c)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.Constraints = append(m.Constraints, con)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

func yearKeys(values map[string]*float64) (map[int]*float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[int]*float64, len(values))
	for k, v := range values {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("key %q is not a year", k)
		}
		out[year] = v
	}
	return out, nil
}

// translateGenerator splits a generator mapping into its identifying keys and
// the parameters passed to the generator's constructor.
func translateGenerator(n *yaml.Node) (*config.Generator, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: generator must be a mapping", n.Line)
	}
	g := &config.Generator{Params: map[string]cty.Value{}}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "kind", "name", "label":
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: generator %s must be a string", val.Line, key)
			}
			switch key {
			case "kind":
				g.Kind = val.Value
			case "name":
				g.Name = val.Value
			case "label":
				g.Label = val.Value
			}
		default:
			v, err := toCty(val)
			if err != nil {
				return nil, fmt.Errorf("generator %q: parameter %q: %w", g.Name, key, err)
			}
			g.Params[key] = v
		}
	}
	if g.Kind == "" || g.Name == "" {
		return nil, fmt.Errorf("line %d: generator requires kind and name", n.Line)
	}
	return g, nil
}

func translateConstraint(c constraint) (*config.Constraint, error) {
	out := &config.Constraint{
		Name:      c.Name,
		Label:     c.Label,
		LineItem:  c.LineItem,
		Operator:  c.Operator,
		Tolerance: c.Tolerance,
	}
	switch c.Target.Kind {
	case yaml.MappingNode:
		var raw map[string]float64
		if err := c.Target.Decode(&raw); err != nil {
			return nil, fmt.Errorf("constraint %q: target: %w", c.Name, err)
		}
		out.Targets = make(map[int]float64, len(raw))
		for k, v := range raw {
			year, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: target key %q is not a year", c.Name, k)
			}
			out.Targets[year] = v
		}
	case yaml.ScalarNode:
		var f float64
		if err := c.Target.Decode(&f); err != nil {
			return nil, fmt.Errorf("constraint %q: target must be a number or a map of year to number", c.Name)
		}
		out.Target = &f
	}
	return out, nil
}

// toCty converts a decoded YAML node into the equivalent cty value. Mappings
// become objects and sequences become tuples.
func toCty(n *yaml.Node) (cty.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return toCty(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return cty.NullVal(cty.DynamicPseudoType), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return cty.NilVal, err
			}
			return cty.BoolVal(b), nil
		case "!!int", "!!float":
			v, err := cty.ParseNumberVal(n.Value)
			if err != nil {
				return cty.NilVal, fmt.Errorf("line %d: invalid number %q", n.Line, n.Value)
			}
			return v, nil
		default:
			return cty.StringVal(n.Value), nil
		}
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := toCty(c)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, v)
		}
		return cty.TupleVal(elems), nil
	case yaml.MappingNode:
		attrs := make(map[string]cty.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := toCty(n.Content[i+1])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[n.Content[i].Value] = v
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
