package formula

import (
	"errors"
	"fmt"
	"strings"
)

// ErrArithmetic is the root of every numeric failure raised during evaluation.
var ErrArithmetic = errors.New("arithmetic error")

// ErrDivisionByZero is returned for `/`, `//` and `%` with a zero divisor and
// for zero raised to a negative power.
var ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)

// SyntaxError reports malformed formula text.
type SyntaxError struct {
	Formula string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in formula %q at offset %d: %s", e.Formula, e.Pos, e.Msg)
}

// UnsupportedError reports well-formed syntax that the formula language does
// not allow. Kind names the offending construct, e.g. "call" or "comparison".
type UnsupportedError struct {
	Formula string
	Pos     int
	Kind    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct in formula %q at offset %d: %s", e.Formula, e.Pos, e.Kind)
}

// NotFoundError is returned when a referenced quantity has no entry for the
// requested year.
type NotFoundError struct {
	Name string
	Year int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("quantity %q not found for year %d", e.Name, e.Year)
}

// NullValueError is returned when ordinary arithmetic reads a null value.
type NullValueError struct {
	Name string
	Year int
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("quantity %q is null for year %d and cannot be used in arithmetic", e.Name, e.Year)
}

// CategoryNotFoundError is returned by category_total for an undeclared category.
type CategoryNotFoundError struct {
	Category  string
	Available []string
}

func (e *CategoryNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("category %q not found: no categories are declared", e.Category)
	}
	return fmt.Sprintf("category %q not found; declared categories: %s", e.Category, strings.Join(e.Available, ", "))
}

// EvalError attaches the formula and year to a failure raised while
// evaluating a parsed formula.
type EvalError struct {
	Formula string
	Year    int
	Err     error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating formula %q for year %d: %v", e.Formula, e.Year, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// SelfReferenceError is reported by Validate for a formula that reads its own
// quantity in the same year.
type SelfReferenceError struct {
	Name    string
	Formula string
}

func (e *SelfReferenceError) Error() string {
	return fmt.Sprintf("formula %q for %q references itself without a year offset; use %s[-1] for the prior year", e.Formula, e.Name, e.Name)
}

// UndefinedNameError is reported by Validate for names that do not exist in
// the model. Suggestions maps a name to its closest known matches.
type UndefinedNameError struct {
	Owner       string
	Names       []string
	Suggestions map[string][]string
}

func (e *UndefinedNameError) Error() string {
	parts := make([]string, 0, len(e.Names))
	for _, name := range e.Names {
		part := fmt.Sprintf("%q", name)
		if s := e.Suggestions[name]; len(s) > 0 {
			part += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		parts = append(parts, part)
	}
	prefix := "formula references undefined names"
	if e.Owner != "" {
		prefix = fmt.Sprintf("formula for %q references undefined names", e.Owner)
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(parts, ", "))
}
