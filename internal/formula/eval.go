package formula

import (
	"fmt"
	"math"
)

// Lookup gives the evaluator read access to resolved values.
type Lookup interface {
	// Value returns the stored value of name for year. present is false when
	// the pair has not been resolved; a nil value with present true is null.
	Value(name string, year int) (value *float64, present bool)
	// CategoryTotal sums the line items of category for year, counting nulls
	// as zero. It fails with *CategoryNotFoundError for an undeclared category.
	CategoryTotal(category string, year int) (float64, error)
}

// Evaluate parses src and evaluates it for year. The parse tree is discarded
// afterwards.
func Evaluate(src string, lookup Lookup, year int) (float64, error) {
	f, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return f.Eval(lookup, year)
}

// Eval evaluates the formula for year. Failures are wrapped in *EvalError.
func (f *Formula) Eval(lookup Lookup, year int) (float64, error) {
	v, err := f.root.eval(&evaluator{lookup: lookup, year: year})
	if err != nil {
		return 0, &EvalError{Formula: f.src, Year: year, Err: err}
	}
	return v, nil
}

type evaluator struct {
	lookup Lookup
	year   int
}

func (n *numberLit) eval(*evaluator) (float64, error) {
	return n.value, nil
}

func (n *ref) eval(e *evaluator) (float64, error) {
	year := e.year + n.offset
	v, ok := e.lookup.Value(n.name, year)
	if !ok {
		return 0, &NotFoundError{Name: n.name, Year: year}
	}
	if v == nil {
		return 0, &NullValueError{Name: n.name, Year: year}
	}
	return *v, nil
}

func (n *categoryTotal) eval(e *evaluator) (float64, error) {
	return e.lookup.CategoryTotal(n.category, e.year)
}

func (n *unaryExpr) eval(e *evaluator) (float64, error) {
	x, err := n.x.eval(e)
	if err != nil {
		return 0, err
	}
	if n.op == "-" {
		return -x, nil
	}
	return x, nil
}

func (n *binaryExpr) eval(e *evaluator) (float64, error) {
	x, err := n.x.eval(e)
	if err != nil {
		return 0, err
	}
	y, err := n.y.eval(e)
	if err != nil {
		return 0, err
	}
	v, err := apply(n.op, x, y)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %v %s %v is not a finite number", ErrArithmetic, x, n.op, y)
	}
	return v, nil
}

func apply(op string, x, y float64) (float64, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x / y, nil
	case "//":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		q, _ := floorDivMod(x, y)
		return q, nil
	case "%":
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		_, r := floorDivMod(x, y)
		return r, nil
	case "**":
		if x == 0 && y < 0 {
			return 0, ErrDivisionByZero
		}
		if x < 0 && y != math.Trunc(y) {
			return 0, fmt.Errorf("%w: %v ** %v has no real result", ErrArithmetic, x, y)
		}
		return math.Pow(x, y), nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

// floorDivMod returns the floored quotient and the remainder of x / y, both
// derived from one remainder so that x == q*y + r holds. The remainder takes
// the sign of y. y must be non-zero.
func floorDivMod(x, y float64) (q, r float64) {
	r = math.Mod(x, y)
	div := (x - r) / y
	if r != 0 && (y < 0) != (r < 0) {
		r += y
		div--
	}
	q = math.Floor(div)
	if div-q > 0.5 {
		q++
	}
	return q, r
}
