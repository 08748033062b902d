package debt

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
)

// Kind is the registered generator kind of long-term debt.
const Kind = "debt"

// Config describes a debt generator.
type Config struct {
	Name         string
	Principal    generator.Amount
	InterestRate generator.Number
	Term         generator.Number
	// ExistingDebtService is debt service on obligations incurred before the
	// first model year, in consecutive years.
	ExistingDebtService []Payment
}

// Debt generates principal, interest, bond proceeds and outstanding balance
// from a series of level debt service issuances.
type Debt struct {
	name      string
	principal generator.Amount
	rate      generator.Number
	term      generator.Number
	existing  []Payment
}

var _ generator.Generator = (*Debt)(nil)

// New validates cfg and returns the generator. Every problem is reported.
func New(cfg Config) (*Debt, error) {
	var result *multierror.Error
	invalid := func(param, format string, args ...any) {
		result = multierror.Append(result, &generator.InvalidParamError{Generator: cfg.Name, Param: param, Msg: fmt.Sprintf(format, args...)})
	}

	if !metadata.ValidName(cfg.Name) {
		result = multierror.Append(result, fmt.Errorf("debt generator %q: name must contain only letters, digits, '_' or '-'", cfg.Name))
	}
	if cfg.Principal.Ref == "" {
		for year, amount := range cfg.Principal.Fixed {
			if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
				invalid("principal", "must be a non-negative finite amount, got %v for year %d", amount, year)
			}
		}
	}
	if cfg.InterestRate.Ref == "" {
		if r := cfg.InterestRate.Fixed; math.IsNaN(r) || math.IsInf(r, 0) || r <= -1 {
			invalid("interest_rate", "must be a finite number greater than -1, got %v", r)
		}
	}
	if cfg.Term.Ref == "" {
		if err := checkTerm(cfg.Term.Fixed); err != nil {
			invalid("term", "%v", err)
		}
	}
	for i, p := range cfg.ExistingDebtService {
		if p.Principal < 0 || math.IsNaN(p.Principal) || math.IsInf(p.Principal, 0) {
			invalid("existing_debt_service", "entry %d: principal must be a non-negative number", i)
		}
		if p.Interest < 0 || math.IsNaN(p.Interest) || math.IsInf(p.Interest, 0) {
			invalid("existing_debt_service", "entry %d: interest must be a non-negative number", i)
		}
		if i > 0 {
			prev := cfg.ExistingDebtService[i-1].Year
			if p.Year != prev+1 {
				invalid("existing_debt_service", "entry %d: year %d must directly follow %d", i, p.Year, prev)
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Debt{
		name:      cfg.Name,
		principal: cfg.Principal.Bind(cfg.Name, "principal"),
		rate:      cfg.InterestRate.Bind(cfg.Name, "interest_rate"),
		term:      cfg.Term.Bind(cfg.Name, "term"),
		existing:  append([]Payment(nil), cfg.ExistingDebtService...),
	}, nil
}

func checkTerm(term float64) error {
	if term <= 0 || term != math.Trunc(term) || math.IsInf(term, 0) {
		return fmt.Errorf("must be a positive whole number of years, got %v", term)
	}
	return nil
}

func (d *Debt) Name() string { return d.name }

func (d *Debt) Kind() string { return Kind }

// PrincipalName is the output holding principal paid in the year.
func (d *Debt) PrincipalName() string { return d.name + "_principal" }

// InterestName is the output holding interest paid in the year.
func (d *Debt) InterestName() string { return d.name + "_interest" }

// BondProceedsName is the output holding new issuance in the year.
func (d *Debt) BondProceedsName() string { return d.name + "_bond_proceeds" }

// OutstandingName is the output holding principal outstanding at year end.
func (d *Debt) OutstandingName() string { return d.name + "_debt_outstanding" }

func (d *Debt) Outputs() []string {
	return []string{d.PrincipalName(), d.InterestName(), d.BondProceedsName(), d.OutstandingName()}
}

func (d *Debt) References() []string {
	return generator.References(d.principal.Ref, d.rate.Ref, d.term.Ref)
}

// Schedules replays every issuance in a matrix year up to and including year
// and returns their schedules in issuance order.
func (d *Debt) Schedules(m matrix.Matrix, year int) ([]Schedule, error) {
	var schedules []Schedule
	for _, y := range m.Years() {
		if y > year {
			break
		}
		par, err := d.principal.Resolve(m, y)
		if err != nil {
			return nil, err
		}
		if par <= 0 {
			continue
		}
		rate, err := d.rate.Resolve(m, y)
		if err != nil {
			return nil, err
		}
		if rate <= -1 {
			return nil, &generator.InvalidParamError{Generator: d.name, Param: "interest_rate", Msg: fmt.Sprintf("resolved to %v for year %d, must be greater than -1", rate, y)}
		}
		term, err := d.term.Resolve(m, y)
		if err != nil {
			return nil, err
		}
		if err := checkTerm(term); err != nil {
			return nil, &generator.InvalidParamError{Generator: d.name, Param: "term", Msg: fmt.Sprintf("for year %d %v", y, err)}
		}
		schedules = append(schedules, Schedule{IssueYear: y, Par: par, Payments: Amortize(par, rate, y, int(term))})
	}
	return schedules, nil
}

// Values computes the four outputs for year.
func (d *Debt) Values(m matrix.Matrix, year int) (map[string]float64, error) {
	if err := matrix.Validate(m); err != nil {
		return nil, fmt.Errorf("debt generator %q: %w", d.name, err)
	}

	schedules, err := d.Schedules(m, year)
	if err != nil {
		return nil, err
	}
	proceeds, err := d.principal.Resolve(m, year)
	if err != nil {
		return nil, err
	}

	principal, interest := sumForYear(d.existing, year)
	outstanding := outstandingAfter(d.existing, year)
	for _, s := range schedules {
		p, i := sumForYear(s.Payments, year)
		principal += p
		interest += i
		outstanding += outstandingAfter(s.Payments, year)
	}

	return map[string]float64{
		d.PrincipalName():    principal,
		d.InterestName():     interest,
		d.BondProceedsName(): proceeds,
		d.OutstandingName():  outstanding,
	}, nil
}
