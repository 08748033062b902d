package resolver

import (
	"fmt"
	"strings"
)

// CircularReferenceError lists every quantity still unresolved when a pass
// made no progress.
type CircularReferenceError struct {
	Year  int
	Names []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference or unresolvable dependency in year %d: %s", e.Year, strings.Join(e.Names, ", "))
}

// MissingFromMatrixError lists quantities declared in metadata that the
// resolver did not produce for a year.
type MissingFromMatrixError struct {
	Year  int
	Names []string
}

func (e *MissingFromMatrixError) Error() string {
	return fmt.Sprintf("quantities missing from value matrix for year %d: %s", e.Year, strings.Join(e.Names, ", "))
}

// DuplicateValueError is returned when a quantity is about to be written a
// second time for the same year.
type DuplicateValueError struct {
	Name string
	Year int
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("quantity %q already has a value for year %d", e.Name, e.Year)
}

// UndefinedReferenceError is returned when a definition reads a name that does
// not exist anywhere in the model.
type UndefinedReferenceError struct {
	Referrer    string
	Name        string
	Year        int
	Suggestions []string
}

func (e *UndefinedReferenceError) Error() string {
	msg := fmt.Sprintf("%q references %q, which is not defined in the model", e.Referrer, e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestions[0])
	}
	return msg
}

// ReferenceError is returned when a defined quantity is read for a year the
// matrix does not cover, such as the year before the first model year.
type ReferenceError struct {
	Referrer string
	Name     string
	Year     int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%q references %q for year %d, which is not in the value matrix", e.Referrer, e.Name, e.Year)
}

// ResolutionError attaches the quantity being resolved to a fatal failure.
type ResolutionError struct {
	Name string
	Year int
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %q for year %d: %v", e.Name, e.Year, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// pendingCategoryError means a category total cannot be summed yet because
// some members are unresolved. It never leaves the package.
type pendingCategoryError struct {
	Category string
	Year     int
	Missing  []string
}

func (e *pendingCategoryError) Error() string {
	return fmt.Sprintf("category %q has unresolved members for year %d: %s", e.Category, e.Year, strings.Join(e.Missing, ", "))
}
