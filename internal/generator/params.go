package generator

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/proformagrid/internal/matrix"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var refPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Params gives typed access to the raw attributes of a generator block.
type Params struct {
	owner  string
	values map[string]cty.Value
	used   map[string]struct{}
}

// NewParams wraps the attributes of the generator named owner.
func NewParams(owner string, values map[string]cty.Value) *Params {
	if values == nil {
		values = map[string]cty.Value{}
	}
	return &Params{owner: owner, values: values, used: make(map[string]struct{})}
}

func (p *Params) invalid(key, format string, args ...any) error {
	return &InvalidParamError{Generator: p.owner, Param: key, Msg: fmt.Sprintf(format, args...)}
}

// lookup marks key as used and returns its value. Null values count as absent.
func (p *Params) lookup(key string) (cty.Value, bool) {
	p.used[key] = struct{}{}
	v, ok := p.values[key]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// Has reports whether key is set to a non-null value. It marks key as used.
func (p *Params) Has(key string) bool {
	p.used[key] = struct{}{}
	v, ok := p.values[key]
	return ok && !v.IsNull()
}

// Float decodes a required fixed number.
func (p *Params) Float(key string) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return 0, p.invalid(key, "is required")
	}
	return p.float(key, v)
}

// OptionalFloat decodes a fixed number, returning def when key is unset.
func (p *Params) OptionalFloat(key string, def float64) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	return p.float(key, v)
}

func (p *Params) float(key string, v cty.Value) (float64, error) {
	num, err := convert.Convert(v, cty.Number)
	if err != nil || !num.IsKnown() {
		return 0, p.invalid(key, "must be a number")
	}
	var f float64
	if err := gocty.FromCtyValue(num, &f); err != nil {
		return 0, p.invalid(key, "must be a number: %v", err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, p.invalid(key, "must be finite")
	}
	return f, nil
}

// Int decodes a required whole number.
func (p *Params) Int(key string) (int, error) {
	v, ok := p.lookup(key)
	if !ok {
		return 0, p.invalid(key, "is required")
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil || !num.IsKnown() {
		return 0, p.invalid(key, "must be a whole number")
	}
	var i int
	if err := gocty.FromCtyValue(num, &i); err != nil {
		return 0, p.invalid(key, "must be a whole number")
	}
	return i, nil
}

// Decode decodes key into target with gocty. It reports whether key was set.
func (p *Params) Decode(key string, target any) (bool, error) {
	v, ok := p.lookup(key)
	if !ok {
		return false, nil
	}
	ty, err := gocty.ImpliedType(target)
	if err != nil {
		return true, fmt.Errorf("generator %q: cannot decode parameter %q: %w", p.owner, key, err)
	}
	conv, err := convert.Convert(v, ty)
	if err != nil {
		return true, p.invalid(key, "has the wrong shape: %v", err)
	}
	if err := gocty.FromCtyValue(conv, target); err != nil {
		return true, p.invalid(key, "has the wrong shape: %v", err)
	}
	return true, nil
}

// Number decodes a required parameter that is either a fixed number or the
// name of a quantity.
func (p *Params) Number(key string) (Number, error) {
	v, ok := p.lookup(key)
	if !ok {
		return Number{}, p.invalid(key, "is required")
	}
	if ref, isRef := reference(v); isRef {
		if !refPattern.MatchString(ref) {
			return Number{}, p.invalid(key, "references invalid quantity name %q", ref)
		}
		return Number{owner: p.owner, param: key, Ref: ref}, nil
	}
	f, err := p.float(key, v)
	if err != nil {
		return Number{}, err
	}
	return Number{owner: p.owner, param: key, Fixed: f}, nil
}

// Amount decodes a parameter that is either a per-year map of amounts or the
// name of a quantity. An unset amount is zero in every year.
func (p *Params) Amount(key string) (Amount, error) {
	a := Amount{owner: p.owner, param: key, Fixed: map[int]float64{}}
	v, ok := p.lookup(key)
	if !ok {
		return a, nil
	}
	if ref, isRef := reference(v); isRef {
		if !refPattern.MatchString(ref) {
			return Amount{}, p.invalid(key, "references invalid quantity name %q", ref)
		}
		a.Ref = ref
		a.Fixed = nil
		return a, nil
	}

	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return Amount{}, p.invalid(key, "must be a map of year to amount or a quantity name")
	}
	for it := v.ElementIterator(); it.Next(); {
		k, elem := it.Element()
		year, err := strconv.Atoi(k.AsString())
		if err != nil {
			return Amount{}, p.invalid(key, "has non-integer year %q", k.AsString())
		}
		if elem.IsNull() {
			continue
		}
		f, err := p.float(key, elem)
		if err != nil {
			return Amount{}, p.invalid(key, "has a non-numeric amount for year %d", year)
		}
		a.Fixed[year] = f
	}
	return a, nil
}

// Unused returns an error naming every parameter that was never read.
func (p *Params) Unused() error {
	var unknown []string
	for key := range p.values {
		if _, ok := p.used[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("generator %q: unsupported parameters: %s", p.owner, strings.Join(unknown, ", "))
}

// reference returns the quantity name held by a non-numeric string value.
func reference(v cty.Value) (string, bool) {
	if !v.Type().Equals(cty.String) || !v.IsKnown() {
		return "", false
	}
	s := strings.TrimSpace(v.AsString())
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return "", false
	}
	return s, true
}

// Number is a parameter that is fixed or read from another quantity.
type Number struct {
	owner string
	param string
	Fixed float64
	Ref   string
}

// FixedNumber returns a fixed Number, for constructing generators in code.
func FixedNumber(v float64) Number {
	return Number{Fixed: v}
}

// RefNumber returns a Number read from the quantity named ref.
func RefNumber(ref string) Number {
	return Number{Ref: ref}
}

// Bind attaches the owning generator and parameter name used in errors.
func (n Number) Bind(owner, param string) Number {
	n.owner, n.param = owner, param
	return n
}

// Resolve returns the value for year. A referenced null is an error.
func (n Number) Resolve(m matrix.Matrix, year int) (float64, error) {
	if n.Ref == "" {
		return n.Fixed, nil
	}
	v, ok := m.Value(n.Ref, year)
	if !ok {
		return 0, &MissingParamError{Generator: n.owner, Param: n.param, Ref: n.Ref, Year: year}
	}
	if v == nil {
		return 0, &NullParamError{Generator: n.owner, Param: n.param, Ref: n.Ref, Year: year}
	}
	return *v, nil
}

// Amount is a per-year amount that is fixed or read from another quantity.
type Amount struct {
	owner string
	param string
	Fixed map[int]float64
	Ref   string
}

// FixedAmount returns an Amount with the given per-year values.
func FixedAmount(values map[int]float64) Amount {
	return Amount{Fixed: values}
}

// RefAmount returns an Amount read from the quantity named ref.
func RefAmount(ref string) Amount {
	return Amount{Ref: ref}
}

// Bind attaches the owning generator and parameter name used in errors.
func (a Amount) Bind(owner, param string) Amount {
	a.owner, a.param = owner, param
	return a
}

// Resolve returns the amount for year. A referenced null and a year missing
// from the fixed map are both zero.
func (a Amount) Resolve(m matrix.Matrix, year int) (float64, error) {
	if a.Ref == "" {
		return a.Fixed[year], nil
	}
	v, ok := m.Value(a.Ref, year)
	if !ok {
		return 0, &MissingParamError{Generator: a.owner, Param: a.param, Ref: a.Ref, Year: year}
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

// References returns the quantity names read by the given parameters.
func References(refs ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
