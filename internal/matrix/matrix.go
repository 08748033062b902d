// Package matrix defines the value matrix: the year-indexed table of every
// named quantity's computed value, together with its structural invariant and
// encoders.
package matrix

import (
	"sort"
)

// Row maps a quantity name to its value for one year. A nil value is null.
type Row map[string]*float64

// Matrix maps a year to the row of values computed for that year.
type Matrix map[int]Row

// Num returns a pointer to v, for building rows by hand.
func Num(v float64) *float64 {
	return &v
}

// Years returns the matrix years in ascending order.
func (m Matrix) Years() []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Value returns the value of name for year. present is false when the year or
// the name is missing; a nil value with present true is null.
func (m Matrix) Value(name string, year int) (value *float64, present bool) {
	row, ok := m[year]
	if !ok {
		return nil, false
	}
	v, ok := row[name]
	return v, ok
}

// Names returns the quantity names of year in ascending order.
func (m Matrix) Names(year int) []string {
	row := m[year]
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for year, row := range m {
		r := make(Row, len(row))
		for name, v := range row {
			if v != nil {
				r[name] = Num(*v)
			} else {
				r[name] = nil
			}
		}
		out[year] = r
	}
	return out
}
