package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/ctxlog"
	"github.com/vk/proformagrid/internal/fsutil"
	"github.com/vk/proformagrid/internal/hcl"
	"github.com/vk/proformagrid/internal/yamlmodel"
)

// LoadModel reads the configured model paths with the loader matching their
// file format. HCL and YAML files cannot be mixed in one model.
func (a *App) LoadModel(ctx context.Context) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading model...", "paths", a.config.ModelPaths)

	exts := append([]string{hcl.Extension}, yamlmodel.Extensions...)
	files, err := fsutil.CollectFiles(a.config.ModelPaths, exts...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no model files found in %v", a.config.ModelPaths)
	}

	var hclFiles, yamlFiles []string
	for _, f := range files {
		if filepath.Ext(f) == hcl.Extension {
			hclFiles = append(hclFiles, f)
		} else {
			yamlFiles = append(yamlFiles, f)
		}
	}
	if len(hclFiles) > 0 && len(yamlFiles) > 0 {
		return nil, fmt.Errorf("model mixes HCL files (%s) and YAML/JSON files (%s)", hclFiles[0], yamlFiles[0])
	}

	var loader config.Loader = hcl.NewLoader()
	if len(yamlFiles) > 0 {
		loader = yamlmodel.NewLoader()
	}
	model, err := loader.Load(ctx, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	logger.Info("Model loaded.",
		"files", len(files),
		"years", len(model.Years),
		"line_items", len(model.LineItems),
		"generators", len(model.Generators),
	)
	return model, nil
}
