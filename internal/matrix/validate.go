package matrix

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports violations of the value matrix invariant. It is
// never used for any other kind of failure.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("value matrix validation failed:\n- %s", strings.Join(e.Problems, "\n- "))
}

// CheckYears verifies that years ascend by exactly one.
func CheckYears(years []int) error {
	var problems []string
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			problems = append(problems, fmt.Sprintf("years must be consecutive and ascending: %d follows %d", years[i], years[i-1]))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Validate checks the structural invariant: years are consecutive, every year
// but the last holds exactly the same names, and the last year holds a subset
// of them.
func Validate(m Matrix) error {
	years := m.Years()
	if len(years) == 0 {
		return nil
	}

	var problems []string
	if err := CheckYears(years); err != nil {
		problems = append(problems, err.(*ValidationError).Problems...)
	}

	first := years[0]
	reference := m[first]
	last := years[len(years)-1]

	for _, year := range years[1:] {
		row := m[year]
		extra := difference(row, reference)
		if year == last {
			if len(extra) > 0 {
				problems = append(problems, fmt.Sprintf("last year %d has names not present in earlier years: %s", year, strings.Join(extra, ", ")))
			}
			continue
		}
		missing := difference(reference, row)
		if len(extra) > 0 || len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("year %d has inconsistent names compared to %d: missing [%s], extra [%s]",
				year, first, strings.Join(missing, ", "), strings.Join(extra, ", ")))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// difference returns the sorted names in a that are absent from b.
func difference(a, b Row) []string {
	var out []string
	for name := range a {
		if _, ok := b[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
