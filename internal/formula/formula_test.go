package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapLookup serves values from a year -> name -> value map.
type mapLookup struct {
	values     map[int]map[string]*float64
	categories map[string][]string
}

func (m *mapLookup) Value(name string, year int) (*float64, bool) {
	row, ok := m.values[year]
	if !ok {
		return nil, false
	}
	v, ok := row[name]
	return v, ok
}

func (m *mapLookup) CategoryTotal(category string, year int) (float64, error) {
	members, ok := m.categories[category]
	if !ok {
		return 0, &CategoryNotFoundError{Category: category}
	}
	total := 0.0
	for _, name := range members {
		if v := m.values[year][name]; v != nil {
			total += *v
		}
	}
	return total, nil
}

func num(v float64) *float64 { return &v }

func newLookup() *mapLookup {
	return &mapLookup{
		values: map[int]map[string]*float64{
			2023: {"a": num(8), "b": num(4), "gap": nil},
			2024: {"a": num(10), "b": num(5), "c": num(-7), "gap": nil, "rate": num(0.5)},
		},
		categories: map[string][]string{
			"income": {"a", "b", "gap"},
			"empty":  {},
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		formula string
		want    float64
	}{
		{name: "addition", formula: "a + b", want: 15},
		{name: "literal only", formula: "42", want: 42},
		{name: "underscore literal", formula: "1_000_000 * rate", want: 500_000},
		{name: "exponent literal", formula: "1.5e3", want: 1500},
		{name: "leading dot literal", formula: ".25 * 4", want: 1},
		{name: "precedence", formula: "a + b * 2", want: 20},
		{name: "parentheses", formula: "(a + b) * 2", want: 30},
		{name: "prior year", formula: "a[-1] + b", want: 13},
		{name: "growth", formula: "(a - a[-1]) / a[-1]", want: 0.25},
		{name: "unary minus", formula: "-a + +b", want: -5},
		{name: "double unary", formula: "--a", want: 10},
		{name: "power is right associative", formula: "2 ** 3 ** 2", want: 512},
		{name: "power binds tighter than unary", formula: "-2 ** 2", want: -4},
		{name: "negative exponent", formula: "2 ** -1", want: 0.5},
		{name: "floor division", formula: "a // 3", want: 3},
		{name: "floor division rounds down", formula: "c // 2", want: -4},
		{name: "floor division of fractions", formula: "1 // 0.1", want: 9},
		{name: "floor division of fractions agrees with modulo", formula: "7 // 0.7 * 0.7 + 7 % 0.7", want: 7},
		{name: "floor division and modulo recombine", formula: "1 // 0.1 * 0.1 + 1 % 0.1", want: 1},
		{name: "floor division exact multiple", formula: "7 // 0.7", want: 10},
		{name: "floor division negative divisor", formula: "a // -3", want: -4},
		{name: "modulo", formula: "a % 3", want: 1},
		{name: "modulo takes divisor sign", formula: "c % 3", want: 2},
		{name: "modulo negative divisor", formula: "a % -3", want: -2},
		{name: "category total", formula: `category_total("income")`, want: 15},
		{name: "category total single quotes", formula: `category_total('income') * 2`, want: 30},
		{name: "empty category", formula: `category_total("empty")`, want: 0},
		{name: "legacy category form", formula: "category_total:income", want: 15},
		{name: "whitespace", formula: "  a\t+\nb  ", want: 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(tc.formula, newLookup(), 2024)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestEvaluate_ReferenceErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing prior year names the year", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("a[-1] + b", newLookup(), 2023)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "a", nf.Name)
		assert.Equal(t, 2022, nf.Year)
		assert.ErrorContains(t, err, "2022")
	})

	t.Run("missing current year name", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("a + missing", newLookup(), 2024)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "missing", nf.Name)
		assert.Equal(t, 2024, nf.Year)

		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
		assert.Equal(t, 2024, evalErr.Year)
	})

	t.Run("null in arithmetic", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("a + gap", newLookup(), 2024)

		var nullErr *NullValueError
		require.ErrorAs(t, err, &nullErr)
		assert.Equal(t, "gap", nullErr.Name)
		assert.Equal(t, 2024, nullErr.Year)
	})

	t.Run("null prior year", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("gap[-1]", newLookup(), 2024)

		var nullErr *NullValueError
		require.ErrorAs(t, err, &nullErr)
		assert.Equal(t, 2023, nullErr.Year)
	})

	t.Run("undeclared category", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate(`category_total("nope")`, newLookup(), 2024)

		var catErr *CategoryNotFoundError
		require.ErrorAs(t, err, &catErr)
		assert.Equal(t, "nope", catErr.Category)
	})
}

func TestEvaluate_ArithmeticErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"a / 0", "a // (b - 5)", "a % 0", "0 ** -1"} {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			_, err := Evaluate(src, newLookup(), 2024)
			require.ErrorIs(t, err, ErrDivisionByZero)
			assert.ErrorIs(t, err, ErrArithmetic)
		})
	}

	t.Run("complex result", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("c ** 0.5", newLookup(), 2024)
		require.ErrorIs(t, err, ErrArithmetic)
		assert.False(t, errors.Is(err, ErrDivisionByZero))
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()
		_, err := Evaluate("10 ** 400", newLookup(), 2024)
		require.ErrorIs(t, err, ErrArithmetic)
	})
}

func TestParse_Unsupported(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		formula string
		kind    string
	}{
		{formula: "max(a, b)", kind: "call"},
		{formula: "sum(a)", kind: "call"},
		{formula: "a > b", kind: "comparison"},
		{formula: "a == b", kind: "comparison"},
		{formula: "a <= 1", kind: "comparison"},
		{formula: "True", kind: "boolean literal"},
		{formula: "a + False", kind: "boolean literal"},
		{formula: "None", kind: "null literal"},
		{formula: `"text"`, kind: "string literal"},
		{formula: "a + 'x'", kind: "string literal"},
		{formula: "a.b", kind: "attribute access"},
		{formula: "a and b", kind: "boolean operator"},
		{formula: "not a", kind: "boolean operator"},
		{formula: "a[b]", kind: "subscript"},
		{formula: "a[-1][-1]", kind: "subscript"},
		{formula: "(a)(b)", kind: "call"},
		{formula: "a if b else c", kind: "conditional expression"},
	}

	for _, tc := range testCases {
		t.Run(tc.formula, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.formula)

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tc.kind, unsupported.Kind)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"",
		"   ",
		"a +",
		"(a + b",
		"a b",
		"a[0]",
		"a[1]",
		"a[-1.5]",
		"a[-99999999999999999999]",
		"a[-1",
		"1__0",
		"12abc",
		"a $ b",
		`category_total()`,
		`category_total("x", "y")`,
		`category_total("bad name")`,
		"category_total:",
		"category_total:has space",
		`"unterminated`,
	} {
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(src)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr, "got %v", err)
		})
	}
}

func TestFormula_Reusable(t *testing.T) {
	t.Parallel()

	f, err := Parse("a * 2")
	require.NoError(t, err)
	assert.Equal(t, "a * 2", f.String())

	first, err := f.Eval(newLookup(), 2023)
	require.NoError(t, err)
	second, err := f.Eval(newLookup(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 16.0, first)
	assert.Equal(t, 20.0, second)
	assert.False(t, math.IsNaN(second))
}
