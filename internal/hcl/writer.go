package hcl

import (
	"io"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/proformagrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Write renders m as a single canonical HCL model file. Loading the output
// yields an equivalent model.
func Write(w io.Writer, m *config.Model) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	if len(m.Years) > 0 {
		body := root.AppendNewBlock("model", nil).Body()
		if consecutive(m.Years) {
			body.SetAttributeValue("start_year", cty.NumberIntVal(int64(m.Years[0])))
			body.SetAttributeValue("end_year", cty.NumberIntVal(int64(m.Years[len(m.Years)-1])))
		} else {
			years := make([]cty.Value, len(m.Years))
			for i, y := range m.Years {
				years[i] = cty.NumberIntVal(int64(y))
			}
			body.SetAttributeValue("years", cty.ListVal(years))
		}
	}

	for _, c := range m.Categories {
		root.AppendNewline()
		body := root.AppendNewBlock("category", []string{c.Name}).Body()
		setString(body, "label", c.Label)
		if c.IncludeTotal {
			body.SetAttributeValue("include_total", cty.True)
		}
		setString(body, "total_label", c.TotalLabel)
	}

	for _, li := range m.LineItems {
		root.AppendNewline()
		body := root.AppendNewBlock("line_item", []string{li.Name}).Body()
		setString(body, "label", li.Label)
		setString(body, "category", li.Category)
		if len(li.Values) > 0 {
			body.SetAttributeValue("values", yearObject(li.Values))
		}
		if li.Constant != nil {
			body.SetAttributeValue("constant", cty.NumberFloatVal(*li.Constant))
		}
		setString(body, "formula", li.Formula)
		setString(body, "value_format", li.ValueFormat)
	}

	for _, g := range m.Generators {
		root.AppendNewline()
		body := root.AppendNewBlock("generator", []string{g.Kind, g.Name}).Body()
		setString(body, "label", g.Label)
		keys := make([]string, 0, len(g.Params))
		for k := range g.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			body.SetAttributeValue(k, g.Params[k])
		}
	}

	for _, c := range m.Constraints {
		root.AppendNewline()
		body := root.AppendNewBlock("constraint", []string{c.Name}).Body()
		setString(body, "label", c.Label)
		body.SetAttributeValue("line_item", cty.StringVal(c.LineItem))
		body.SetAttributeValue("operator", cty.StringVal(c.Operator))
		if c.Target != nil {
			body.SetAttributeValue("target", cty.NumberFloatVal(*c.Target))
		} else {
			targets := make(map[int]*float64, len(c.Targets))
			for y, v := range c.Targets {
				targets[y] = &v
			}
			body.SetAttributeValue("target", yearObject(targets))
		}
		if c.Tolerance != 0 {
			body.SetAttributeValue("tolerance", cty.NumberFloatVal(c.Tolerance))
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func setString(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

func yearObject(values map[int]*float64) cty.Value {
	attrs := make(map[string]cty.Value, len(values))
	for _, y := range sortedYears(values) {
		if v := values[y]; v != nil {
			attrs[strconv.Itoa(y)] = cty.NumberFloatVal(*v)
		} else {
			attrs[strconv.Itoa(y)] = cty.NullVal(cty.Number)
		}
	}
	return cty.ObjectVal(attrs)
}

func consecutive(years []int) bool {
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return false
		}
	}
	return true
}
