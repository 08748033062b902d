package generator

import "fmt"

// MissingParamError is returned when a referenced quantity has no value in
// the matrix for the year being computed.
type MissingParamError struct {
	Generator string
	Param     string
	Ref       string
	Year      int
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("generator %q: parameter %q references %q, which has no value for year %d", e.Generator, e.Param, e.Ref, e.Year)
}

// NullParamError is returned when a referenced quantity that must be numeric
// is null.
type NullParamError struct {
	Generator string
	Param     string
	Ref       string
	Year      int
}

func (e *NullParamError) Error() string {
	return fmt.Sprintf("generator %q: parameter %q references %q, which is null for year %d", e.Generator, e.Param, e.Ref, e.Year)
}

// InvalidParamError reports a parameter value that cannot be used, either at
// construction or once a reference has been resolved.
type InvalidParamError struct {
	Generator string
	Param     string
	Msg       string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("generator %q: parameter %q %s", e.Generator, e.Param, e.Msg)
}
