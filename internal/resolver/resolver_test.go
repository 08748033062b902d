package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/proformagrid/internal/formula"
	"github.com/vk/proformagrid/internal/generator"
	"github.com/vk/proformagrid/internal/matrix"
	"github.com/vk/proformagrid/internal/metadata"
)

// scaler is a test generator that multiplies one referenced quantity.
type scaler struct {
	name string
	ref  string
}

func (s *scaler) Name() string         { return s.name }
func (s *scaler) Kind() string         { return "scaler" }
func (s *scaler) Outputs() []string    { return []string{s.name + "_double", s.name + "_triple"} }
func (s *scaler) References() []string { return []string{s.ref} }

func (s *scaler) Values(m matrix.Matrix, year int) (map[string]float64, error) {
	v, ok := m.Value(s.ref, year)
	if !ok {
		return nil, &generator.MissingParamError{Generator: s.name, Param: "input", Ref: s.ref, Year: year}
	}
	return map[string]float64{s.name + "_double": *v * 2, s.name + "_triple": *v * 3}, nil
}

func item(name, category string) metadata.Quantity {
	return metadata.Quantity{Name: name, SourceType: metadata.SourceLineItem, SourceName: name, Category: category}
}

func permutations(defs []Definition) [][]Definition {
	if len(defs) <= 1 {
		return [][]Definition{append([]Definition(nil), defs...)}
	}
	var out [][]Definition
	for i := range defs {
		rest := make([]Definition, 0, len(defs)-1)
		rest = append(rest, defs[:i]...)
		rest = append(rest, defs[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Definition{defs[i]}, p...))
		}
	}
	return out
}

func TestGenerateValueMatrix_OrderIndependent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	defs := []Definition{
		&LineItem{Name: "revenue", Category: "income", Values: map[int]*float64{2024: matrix.Num(100), 2025: matrix.Num(110)}},
		&LineItem{Name: "costs", Category: "expenses", Formula: "revenue * 0.6"},
		&LineItem{Name: "profit", Formula: "revenue - costs"},
		&CategoryTotal{Name: "total_income", Category: "income"},
		&LineItem{Name: "growth", Formula: "revenue - revenue[-1]", Values: map[int]*float64{2024: matrix.Num(0)}},
	}
	categories := []metadata.Category{{Name: "income"}, {Name: "expenses"}}
	quantities := []metadata.Quantity{
		item("revenue", "income"), item("costs", "expenses"), item("profit", ""), item("growth", ""),
		{Name: "total_income", SourceType: metadata.SourceCategory, SourceName: "income", Category: metadata.TotalsCategory},
	}
	want := matrix.Matrix{
		2024: {"revenue": matrix.Num(100), "costs": matrix.Num(60), "profit": matrix.Num(40), "total_income": matrix.Num(100), "growth": matrix.Num(0)},
		2025: {"revenue": matrix.Num(110), "costs": matrix.Num(66), "profit": matrix.Num(44), "total_income": matrix.Num(110), "growth": matrix.Num(10)},
	}

	for _, order := range permutations(defs) {
		// --- Act ---
		got, err := GenerateValueMatrix(context.Background(), []int{2024, 2025}, order, categories, quantities)

		// --- Assert ---
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 })); diff != "" {
			t.Fatalf("value matrix mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestGenerateValueMatrix_Generator(t *testing.T) {
	t.Parallel()

	defs := []Definition{
		&LineItem{Name: "after", Formula: "s_double + s_triple"},
		&GeneratorOutputs{Generator: &scaler{name: "s", ref: "base"}},
		&LineItem{Name: "base", Constant: matrix.Num(10)},
	}
	quantities := []metadata.Quantity{
		item("after", ""), item("base", ""),
		{Name: "s_double", SourceType: metadata.SourceGenerator, SourceName: "s", Category: "s"},
		{Name: "s_triple", SourceType: metadata.SourceGenerator, SourceName: "s", Category: "s"},
	}

	got, err := GenerateValueMatrix(context.Background(), []int{2030}, defs, []metadata.Category{{Name: "s", SystemGenerated: true}}, quantities)
	require.NoError(t, err)
	assert.Equal(t, 20.0, *got[2030]["s_double"])
	assert.Equal(t, 30.0, *got[2030]["s_triple"])
	assert.Equal(t, 50.0, *got[2030]["after"])
}

func TestGenerateValueMatrix_Nulls(t *testing.T) {
	t.Parallel()

	categories := []metadata.Category{{Name: "misc"}}
	quantities := []metadata.Quantity{item("a", "misc"), item("b", "misc"), {Name: "total_misc", SourceType: metadata.SourceCategory, SourceName: "misc"}}

	t.Run("null counts as zero in totals", func(t *testing.T) {
		t.Parallel()
		defs := []Definition{
			&LineItem{Name: "a", Category: "misc", Values: map[int]*float64{2024: nil}},
			&LineItem{Name: "b", Category: "misc", Constant: matrix.Num(7)},
			&CategoryTotal{Name: "total_misc", Category: "misc"},
		}
		got, err := GenerateValueMatrix(context.Background(), []int{2024}, defs, categories, quantities)
		require.NoError(t, err)
		assert.Nil(t, got[2024]["a"])
		assert.Equal(t, 7.0, *got[2024]["total_misc"])
	})

	t.Run("null in a direct reference is an error", func(t *testing.T) {
		t.Parallel()
		defs := []Definition{
			&LineItem{Name: "a", Category: "misc"},
			&LineItem{Name: "b", Category: "misc", Formula: "a + 1"},
			&CategoryTotal{Name: "total_misc", Category: "misc"},
		}
		_, err := GenerateValueMatrix(context.Background(), []int{2024}, defs, categories, quantities)
		var nullErr *formula.NullValueError
		require.ErrorAs(t, err, &nullErr)
		assert.Equal(t, "a", nullErr.Name)
	})
}

func TestGenerateValueMatrix_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		defs       []Definition
		quantities []metadata.Quantity
		check      func(t *testing.T, err error)
	}{
		{
			name:       "circular reference",
			defs:       []Definition{&LineItem{Name: "x", Formula: "y + 1"}, &LineItem{Name: "y", Formula: "x + 1"}},
			quantities: []metadata.Quantity{item("x", ""), item("y", "")},
			check: func(t *testing.T, err error) {
				var circ *CircularReferenceError
				require.ErrorAs(t, err, &circ)
				assert.Equal(t, 2024, circ.Year)
				assert.Equal(t, []string{"x", "y"}, circ.Names)
			},
		},
		{
			name: "circular reference names only the unresolved quantities",
			defs: []Definition{
				&LineItem{Name: "x", Formula: "y + 1"},
				&LineItem{Name: "y", Formula: "x - 1"},
				&LineItem{Name: "z", Constant: matrix.Num(3)},
				&LineItem{Name: "w", Formula: "z * 2"},
			},
			quantities: []metadata.Quantity{item("x", ""), item("y", ""), item("z", ""), item("w", "")},
			check: func(t *testing.T, err error) {
				var circ *CircularReferenceError
				require.ErrorAs(t, err, &circ)
				assert.Equal(t, []string{"x", "y"}, circ.Names)
				assert.EqualError(t, err, "circular reference or unresolvable dependency in year 2024: x, y")
			},
		},
		{
			name:       "circular reference through a generator lists all outputs",
			defs:       []Definition{&LineItem{Name: "base", Formula: "s_double"}, &GeneratorOutputs{Generator: &scaler{name: "s", ref: "base"}}},
			quantities: []metadata.Quantity{item("base", ""), item("s_double", ""), item("s_triple", "")},
			check: func(t *testing.T, err error) {
				var circ *CircularReferenceError
				require.ErrorAs(t, err, &circ)
				assert.Equal(t, []string{"base", "s_double", "s_triple"}, circ.Names)
			},
		},
		{
			name:       "undefined name",
			defs:       []Definition{&LineItem{Name: "revenue", Constant: matrix.Num(1)}, &LineItem{Name: "costs", Formula: "revnue * 2"}},
			quantities: []metadata.Quantity{item("revenue", ""), item("costs", "")},
			check: func(t *testing.T, err error) {
				var undef *UndefinedReferenceError
				require.ErrorAs(t, err, &undef)
				assert.Equal(t, "revnue", undef.Name)
				assert.Equal(t, "costs", undef.Referrer)
				assert.Contains(t, undef.Suggestions, "revenue")
				assert.ErrorContains(t, err, `did you mean "revenue"?`)
			},
		},
		{
			name:       "prior year outside the matrix",
			defs:       []Definition{&LineItem{Name: "a", Constant: matrix.Num(1)}, &LineItem{Name: "b", Constant: matrix.Num(2)}, &LineItem{Name: "c", Formula: "a[-1] + b"}},
			quantities: []metadata.Quantity{item("a", ""), item("b", ""), item("c", "")},
			check: func(t *testing.T, err error) {
				var ref *ReferenceError
				require.ErrorAs(t, err, &ref)
				assert.Equal(t, "a", ref.Name)
				assert.Equal(t, 2023, ref.Year)
			},
		},
		{
			name:       "unknown category",
			defs:       []Definition{&LineItem{Name: "a", Formula: "category_total('nope')"}},
			quantities: []metadata.Quantity{item("a", "")},
			check: func(t *testing.T, err error) {
				var notFound *formula.CategoryNotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "nope", notFound.Category)
			},
		},
		{
			name:       "division by zero",
			defs:       []Definition{&LineItem{Name: "a", Formula: "1 / 0"}},
			quantities: []metadata.Quantity{item("a", "")},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, formula.ErrDivisionByZero)
				var res *ResolutionError
				require.ErrorAs(t, err, &res)
				assert.Equal(t, "a", res.Name)
			},
		},
		{
			name:       "duplicate definition",
			defs:       []Definition{&LineItem{Name: "a", Constant: matrix.Num(1)}, &LineItem{Name: "a", Constant: matrix.Num(2)}},
			quantities: []metadata.Quantity{item("a", "")},
			check: func(t *testing.T, err error) {
				var dup *DuplicateValueError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, "a", dup.Name)
			},
		},
		{
			name:       "metadata name never produced",
			defs:       []Definition{&LineItem{Name: "a", Constant: matrix.Num(1)}},
			quantities: []metadata.Quantity{item("a", ""), item("ghost", "")},
			check: func(t *testing.T, err error) {
				var missing *MissingFromMatrixError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, []string{"ghost"}, missing.Names)
			},
		},
		{
			name:       "syntax error",
			defs:       []Definition{&LineItem{Name: "a", Formula: "1 +"}},
			quantities: []metadata.Quantity{item("a", "")},
			check: func(t *testing.T, err error) {
				var syntax *formula.SyntaxError
				require.ErrorAs(t, err, &syntax)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := GenerateValueMatrix(context.Background(), []int{2024, 2025}, tc.defs, []metadata.Category{{Name: "misc"}}, tc.quantities)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestGenerateValueMatrix_Years(t *testing.T) {
	t.Parallel()

	defs := []Definition{&LineItem{Name: "a", Constant: matrix.Num(1)}}
	quantities := []metadata.Quantity{item("a", "")}

	_, err := GenerateValueMatrix(context.Background(), []int{2024, 2026}, defs, nil, quantities)
	var verr *matrix.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := GenerateValueMatrix(context.Background(), nil, defs, nil, quantities)
	require.NoError(t, err)
	assert.Empty(t, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GenerateValueMatrix(ctx, []int{2024}, defs, nil, quantities)
	require.ErrorIs(t, err, context.Canceled)
}
