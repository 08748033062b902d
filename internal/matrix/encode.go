package matrix

import (
	"fmt"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctyyaml "github.com/zclconf/go-cty-yaml"
)

// ctyType is the cty shape of an encoded matrix: year -> name -> number.
var ctyType = cty.Map(cty.Map(cty.Number))

// ToCty converts m into a map of maps keyed by year, then by name. Nulls are
// kept as null numbers.
func ToCty(m Matrix) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.Map(cty.Number))
	}
	years := make(map[string]cty.Value, len(m))
	for year, row := range m {
		if len(row) == 0 {
			years[strconv.Itoa(year)] = cty.MapValEmpty(cty.Number)
			continue
		}
		vals := make(map[string]cty.Value, len(row))
		for name, v := range row {
			if v == nil {
				vals[name] = cty.NullVal(cty.Number)
			} else {
				vals[name] = cty.NumberFloatVal(*v)
			}
		}
		years[strconv.Itoa(year)] = cty.MapVal(vals)
	}
	return cty.MapVal(years)
}

// FromCty is the inverse of ToCty.
func FromCty(v cty.Value) (Matrix, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("matrix value must be known and not null")
	}
	if !v.Type().Equals(ctyType) {
		return nil, fmt.Errorf("matrix value has type %s, want %s", v.Type().FriendlyName(), ctyType.FriendlyName())
	}

	m := make(Matrix, v.LengthInt())
	for yearKey, rowVal := range v.AsValueMap() {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			return nil, fmt.Errorf("invalid year key %q: %w", yearKey, err)
		}
		row := make(Row)
		if !rowVal.IsNull() {
			for name, cell := range rowVal.AsValueMap() {
				if cell.IsNull() {
					row[name] = nil
					continue
				}
				f, _ := cell.AsBigFloat().Float64()
				row[name] = Num(f)
			}
		}
		m[year] = row
	}
	return m, nil
}

// EncodeJSON renders m as a JSON object keyed by year, then by name.
func EncodeJSON(m Matrix) ([]byte, error) {
	v := ToCty(m)
	return ctyjson.Marshal(v, v.Type())
}

// DecodeJSON parses the output of EncodeJSON.
func DecodeJSON(data []byte) (Matrix, error) {
	v, err := ctyjson.Unmarshal(data, ctyType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode matrix JSON: %w", err)
	}
	return FromCty(v)
}

// EncodeYAML renders m as a YAML mapping keyed by year, then by name.
func EncodeYAML(m Matrix) ([]byte, error) {
	return ctyyaml.Marshal(ToCty(m))
}

// DecodeYAML parses the output of EncodeYAML.
func DecodeYAML(data []byte) (Matrix, error) {
	v, err := ctyyaml.Unmarshal(data, ctyType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode matrix YAML: %w", err)
	}
	return FromCty(v)
}
