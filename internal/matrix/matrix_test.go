package matrix

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Matrix {
	return Matrix{
		2021: {"revenue": Num(100), "costs": Num(60), "note": nil},
		2022: {"revenue": Num(110), "costs": Num(65), "note": nil},
		2023: {"revenue": Num(121)},
	}
}

func TestMatrix_Accessors(t *testing.T) {
	t.Parallel()

	m := sample()
	assert.Equal(t, []int{2021, 2022, 2023}, m.Years())
	assert.Equal(t, []string{"costs", "note", "revenue"}, m.Names(2021))

	v, ok := m.Value("revenue", 2022)
	require.True(t, ok)
	assert.Equal(t, 110.0, *v)

	v, ok = m.Value("note", 2021)
	assert.True(t, ok, "null values are present")
	assert.Nil(t, v)

	_, ok = m.Value("revenue", 2030)
	assert.False(t, ok)
	_, ok = m.Value("missing", 2021)
	assert.False(t, ok)
}

func TestMatrix_Clone(t *testing.T) {
	t.Parallel()

	m := sample()
	c := m.Clone()
	if diff := cmp.Diff(m, c); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	*c[2021]["revenue"] = 1
	c[2022]["extra"] = Num(3)
	assert.Equal(t, 100.0, *m[2021]["revenue"])
	assert.NotContains(t, m[2022], "extra")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("empty matrix is valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(Matrix{}))
	})

	t.Run("last year may be a subset", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(sample()))
	})

	t.Run("single partial year", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(Matrix{2020: {"a": Num(1)}}))
	})

	t.Run("gap between years", func(t *testing.T) {
		t.Parallel()
		err := Validate(Matrix{2020: {"a": Num(1)}, 2022: {"a": Num(1)}})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.ErrorContains(t, err, "2022 follows 2020")
	})

	t.Run("inconsistent middle year", func(t *testing.T) {
		t.Parallel()
		err := Validate(Matrix{
			2020: {"a": Num(1), "b": Num(2)},
			2021: {"a": Num(1), "c": Num(2)},
			2022: {"a": Num(1)},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Problems, 1)
		assert.Contains(t, vErr.Problems[0], "missing [b]")
		assert.Contains(t, vErr.Problems[0], "extra [c]")
	})

	t.Run("last year with extra names", func(t *testing.T) {
		t.Parallel()
		err := Validate(Matrix{
			2020: {"a": Num(1)},
			2021: {"a": Num(1), "z": Num(2), "y": nil},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.ErrorContains(t, err, "last year 2021 has names not present in earlier years: y, z")
	})
}

func TestCheckYears(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckYears(nil))
	assert.NoError(t, CheckYears([]int{2020, 2021, 2022}))

	var vErr *ValidationError
	require.ErrorAs(t, CheckYears([]int{2020, 2022, 2021}), &vErr)
	assert.Len(t, vErr.Problems, 2)
}

func TestEncoding(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		data, err := EncodeJSON(sample())
		require.NoError(t, err)
		assert.Contains(t, string(data), `"note":null`)

		got, err := DecodeJSON(data)
		require.NoError(t, err)
		if diff := cmp.Diff(sample(), got); diff != "" {
			t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		data, err := EncodeYAML(sample())
		require.NoError(t, err)
		assert.Contains(t, string(data), "revenue: 121")

		got, err := DecodeYAML(data)
		require.NoError(t, err)
		if diff := cmp.Diff(sample(), got); diff != "" {
			t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		data, err := EncodeJSON(Matrix{})
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))
	})

	t.Run("decode rejects non numbers", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeJSON([]byte(`{"2020": {"a": "text"}}`))
		require.Error(t, err)
	})
}
