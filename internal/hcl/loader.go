package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/fsutil"
	"github.com/vk/proformagrid/internal/schema"
)

// Extension is the file extension of HCL model files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL model loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their blocks into one
// model. Blocks may be spread over files in any order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s model files found in %v", Extension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part, err := translateFile(&root)
		if err != nil {
			return nil, fmt.Errorf("invalid model file %s: %w", file, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("invalid model file %s: %w", file, err)
		}
	}

	if len(model.Years) == 0 {
		return nil, fmt.Errorf("no model block with years found in %v", paths)
	}

	logger.Debug("HCL loading complete.",
		"years", len(model.Years),
		"categories", len(model.Categories),
		"line_items", len(model.LineItems),
		"generators", len(model.Generators),
		"constraints", len(model.Constraints),
	)
	return model, nil
}

// translateFile converts one decoded file into a partial model, collecting
// every problem.
func translateFile(root *schema.File) (*config.Model, error) {
	var result *multierror.Error
	m := &config.Model{}

	if root.Model != nil {
		years, err := translateModel(root.Model)
		if err != nil {
			result = multierror.Append(result, err)
		}
		m.Years = years
	}
	for _, c := range root.Categories {
		m.Categories = append(m.Categories, translateCategory(c))
	}
	for _, li := range root.LineItems {
		item, err := translateLineItem(li)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.LineItems = append(m.LineItems, item)
	}
	for _, g := range root.Generators {
		gen, err := translateGenerator(g)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.Generators = append(m.Generators, gen)
	}
	for _, c := range root.Constraints {
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
