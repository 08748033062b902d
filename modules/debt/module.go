// Package debt implements the long-term debt generator: level debt service
// amortization of new issuances plus any pre-existing debt service.
package debt

import (
	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the debt generator kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterGenerator(Kind, Build)
}

// Build decodes a generator block of kind "debt":
//
//	generator "debt" "bond" {
//	  principal     = { 2024 = 1000000 }   # or "new_issuance"
//	  interest_rate = 0.05                 # or "rate"
//	  term          = 30                   # or "term_years"
//	  existing_debt_service = [
//	    { year = 2024, principal = 1000, interest = 50 },
//	  ]
//	}
func Build(name string, p *generator.Params) (generator.Generator, error) {
	var result *multierror.Error
	cfg := Config{Name: name}

	var err error
	if cfg.Principal, err = p.Amount("principal"); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.InterestRate, err = p.Number("interest_rate"); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Term, err = p.Number("term"); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := p.Decode("existing_debt_service", &cfg.ExistingDebtService); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	d, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}
