// Package revolver implements the short-term debt generator: a credit
// facility whose balance moves with yearly draws and paydowns and accrues
// interest on the prior year's balance.
package revolver

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
	"github.com/vk/proformagrid/internal/registry"
)

// Kind is the registered generator kind of short-term debt.
const Kind = "short_term_debt"

// Config describes a short-term debt facility. A zero StartYear means the
// first year of the value matrix.
type Config struct {
	Name         string
	Draws        generator.Amount
	Paydown      generator.Amount
	BeginBalance float64
	InterestRate generator.Number
	StartYear    int
}

// Revolver is a short-term debt facility.
type Revolver struct {
	name      string
	draws     generator.Amount
	paydown   generator.Amount
	begin     float64
	rate      generator.Number
	startYear int
}

var _ generator.Generator = (*Revolver)(nil)

// New validates cfg and returns the generator.
func New(cfg Config) (*Revolver, error) {
	var result *multierror.Error
	invalid := func(param, format string, args ...any) {
		result = multierror.Append(result, &generator.InvalidParamError{Generator: cfg.Name, Param: param, Msg: fmt.Sprintf(format, args...)})
	}

	if !metadata.ValidName(cfg.Name) {
		result = multierror.Append(result, fmt.Errorf("short-term debt %q: name must contain only letters, digits, '_' or '-'", cfg.Name))
	}
	for param, amount := range map[string]generator.Amount{"draws": cfg.Draws, "paydown": cfg.Paydown} {
		for year, v := range amount.Fixed {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				invalid(param, "must be a non-negative finite amount, got %v for year %d", v, year)
			}
		}
	}
	if b := cfg.BeginBalance; b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		invalid("begin_balance", "must be a non-negative finite amount, got %v", b)
	}
	if cfg.InterestRate.Ref == "" {
		if r := cfg.InterestRate.Fixed; r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			invalid("interest_rate", "must be a non-negative finite number, got %v", r)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Revolver{
		name:      cfg.Name,
		draws:     cfg.Draws.Bind(cfg.Name, "draws"),
		paydown:   cfg.Paydown.Bind(cfg.Name, "paydown"),
		begin:     cfg.BeginBalance,
		rate:      cfg.InterestRate.Bind(cfg.Name, "interest_rate"),
		startYear: cfg.StartYear,
	}, nil
}

func (r *Revolver) Name() string { return r.name }

func (r *Revolver) Kind() string { return Kind }

func (r *Revolver) Outputs() []string {
	return []string{
		r.name + "_debt_outstanding",
		r.name + "_draw",
		r.name + "_principal",
		r.name + "_interest",
	}
}

func (r *Revolver) References() []string {
	return generator.References(r.draws.Ref, r.paydown.Ref, r.rate.Ref)
}

func (r *Revolver) start(m matrix.Matrix) int {
	if r.startYear != 0 {
		return r.startYear
	}
	if years := m.Years(); len(years) > 0 {
		return years[0]
	}
	return 0
}

// amount resolves a for year. Years outside the matrix contribute nothing
// when the amount is read from another quantity.
func amount(a generator.Amount, m matrix.Matrix, year int) (float64, error) {
	if a.Ref != "" {
		if _, ok := m[year]; !ok {
			return 0, nil
		}
	}
	return a.Resolve(m, year)
}

// Outstanding returns the balance at the end of year.
func (r *Revolver) Outstanding(m matrix.Matrix, year int) (float64, error) {
	start := r.start(m)
	if year < start-1 {
		return 0, fmt.Errorf("short-term debt %q: cannot compute balance for %d, before start year %d", r.name, year, start)
	}
	balance := r.begin
	for y := start; y <= year; y++ {
		draw, err := amount(r.draws, m, y)
		if err != nil {
			return 0, err
		}
		paydown, err := amount(r.paydown, m, y)
		if err != nil {
			return 0, err
		}
		balance += draw - paydown
	}
	return balance, nil
}

// Values computes the four outputs for year.
func (r *Revolver) Values(m matrix.Matrix, year int) (map[string]float64, error) {
	if err := matrix.Validate(m); err != nil {
		return nil, fmt.Errorf("short-term debt %q: %w", r.name, err)
	}
	if start := r.start(m); year < start {
		return nil, fmt.Errorf("short-term debt %q: year %d is before start year %d", r.name, year, start)
	}

	outstanding, err := r.Outstanding(m, year)
	if err != nil {
		return nil, err
	}
	draw, err := amount(r.draws, m, year)
	if err != nil {
		return nil, err
	}
	paydown, err := amount(r.paydown, m, year)
	if err != nil {
		return nil, err
	}
	previous, err := r.Outstanding(m, year-1)
	if err != nil {
		return nil, err
	}
	rate, err := r.rate.Resolve(m, year)
	if err != nil {
		return nil, err
	}

	out := r.Outputs()
	return map[string]float64{
		out[0]: outstanding,
		out[1]: draw,
		out[2]: paydown,
		out[3]: previous * rate,
	}, nil
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the short-term debt generator kind.
func (m *Module) Register(reg *registry.Registry) {
	reg.RegisterGenerator(Kind, Build)
}

// Build decodes a generator block of kind "short_term_debt":
//
//	generator "short_term_debt" "revolver" {
//	  draws         = { 2024 = 500 }   # or a quantity name
//	  paydown       = "cash_sweep"
//	  begin_balance = 1000
//	  interest_rate = 0.06             # or a quantity name
//	  start_year    = 2024
//	}
func Build(name string, p *generator.Params) (generator.Generator, error) {
	var result *multierror.Error
	cfg := Config{Name: name}

	var err error
	if cfg.Draws, err = p.Amount("draws"); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Paydown, err = p.Amount("paydown"); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.BeginBalance, err = p.OptionalFloat("begin_balance", 0); err != nil {
		result = multierror.Append(result, err)
	}
	if p.Has("interest_rate") {
		if cfg.InterestRate, err = p.Number("interest_rate"); err != nil {
			result = multierror.Append(result, err)
		}
	} else {
		cfg.InterestRate = generator.FixedNumber(0)
	}
	if p.Has("start_year") {
		if cfg.StartYear, err = p.Int("start_year"); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	rv, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return rv, nil
}
