// Package generator defines the contract of multi-output generators and the
// helpers they share for decoding and resolving their parameters.
//
// A generator computes several named quantities for a year from one
// configuration. Parameters are either fixed in the model file or name
// another quantity whose value is read from the value matrix being built.
package generator

import (
	"github.com/vk/proformagrid/internal/matrix"
)

// Generator produces a fixed set of named outputs for each year.
//
// Values must be a pure function of its arguments: implementations keep no
// state between calls, so one instance may be shared freely.
type Generator interface {
	// Name is the instance name; every output is prefixed with it.
	Name() string
	// Kind is the registered generator kind, e.g. "debt".
	Kind() string
	// Outputs lists every output name, in a stable order.
	Outputs() []string
	// References lists the quantities read from the matrix.
	References() []string
	// Values computes every output for year from the matrix built so far.
	// A *MissingParamError means a referenced quantity is not available yet.
	Values(m matrix.Matrix, year int) (map[string]float64, error)
}
