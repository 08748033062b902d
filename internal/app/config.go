package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Output formats accepted by Config.Output.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
	OutputHCL  = "hcl"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPaths []string // model files or directories

	LogFormat string
	LogLevel  string
	Output    string

	// StoreDSN, when set, saves the generated matrix as a snapshot named
	// SnapshotName (the first model path when empty).
	StoreDSN     string
	SnapshotName string

	Validate bool   // only validate the model
	Check    bool   // evaluate constraints after generation
	Deps     string // print the dependency tree of this quantity
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ModelPaths) == 0 {
		return nil, errors.New("at least one model path is required")
	}

	var result *multierror.Error
	cfg.Output = strings.ToLower(cfg.Output)
	if cfg.Output == "" {
		cfg.Output = OutputJSON
	}
	switch cfg.Output {
	case OutputJSON, OutputYAML, OutputHCL:
	default:
		result = multierror.Append(result, fmt.Errorf("invalid output %q: must be 'json', 'yaml' or 'hcl'", cfg.Output))
	}
	if cfg.Output == OutputHCL && (cfg.Check || cfg.StoreDSN != "") {
		result = multierror.Append(result, errors.New("hcl output renders the model only and cannot be combined with -check or -store"))
	}
	if cfg.Validate && cfg.Deps != "" {
		result = multierror.Append(result, errors.New("-validate and -deps are mutually exclusive"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	if cfg.SnapshotName == "" {
		cfg.SnapshotName = cfg.ModelPaths[0]
	}
	return &cfg, nil
}
