package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/proformagrid/internal/config"
)

type fakeGenerator struct {
	name    string
	outputs []string
}

func (g fakeGenerator) Name() string      { return g.name }
func (g fakeGenerator) Outputs() []string { return g.outputs }

func TestCollectCategories(t *testing.T) {
	t.Parallel()

	cats, err := CollectCategories(
		[]*config.Category{
			{Name: "income", Label: "Income", IncludeTotal: true},
			{Name: "costs"},
		},
		[]Generator{fakeGenerator{name: "bond"}},
	)
	require.NoError(t, err)

	want := []Category{
		{Name: "income", Label: "Income", IncludeTotal: true, TotalLabel: "Total Income"},
		{Name: "costs", Label: "costs", TotalLabel: "Total costs"},
		{Name: "bond", Label: "bond (Generator)", SystemGenerated: true},
		{Name: TotalsCategory, Label: "Category Totals", SystemGenerated: true},
	}
	if diff := cmp.Diff(want, cats); diff != "" {
		t.Errorf("CollectCategories() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectCategories_Errors(t *testing.T) {
	t.Parallel()

	_, err := CollectCategories([]*config.Category{
		{Name: "bad name"},
		{Name: TotalsCategory},
		{Name: "x"},
		{Name: "x"},
	}, nil)

	require.Error(t, err)
	assert.ErrorContains(t, err, `category "bad name": name must match`)
	assert.ErrorContains(t, err, "is reserved")
	assert.ErrorContains(t, err, `category "x" is declared more than once`)
}

func TestCollectQuantities(t *testing.T) {
	t.Parallel()

	cats, err := CollectCategories(
		[]*config.Category{{Name: "income", IncludeTotal: true}, {Name: "empty", IncludeTotal: true, TotalLabel: "Nothing"}},
		[]Generator{fakeGenerator{name: "bond", outputs: []string{"bond_principal", "bond_interest"}}},
	)
	require.NoError(t, err)

	quantities, err := CollectQuantities(
		[]*config.LineItem{
			{Name: "revenue", Label: "Revenue", Category: "income"},
			{Name: "rate", ValueFormat: "percent"},
		},
		cats,
		[]Generator{fakeGenerator{name: "bond", outputs: []string{"bond_principal", "bond_interest"}}},
	)
	require.NoError(t, err)

	want := []Quantity{
		{Name: "revenue", Label: "Revenue", SourceType: SourceLineItem, SourceName: "revenue", Category: "income", ValueFormat: "no_decimals"},
		{Name: "rate", Label: "rate", SourceType: SourceLineItem, SourceName: "rate", ValueFormat: "percent"},
		{Name: "total_income", Label: "Total income", SourceType: SourceCategory, SourceName: "income", Category: TotalsCategory, ValueFormat: "no_decimals"},
		{Name: "total_empty", Label: "Nothing", SourceType: SourceCategory, SourceName: "empty", Category: TotalsCategory, ValueFormat: "no_decimals"},
		{Name: "bond_principal", Label: "bond_principal", SourceType: SourceGenerator, SourceName: "bond", Category: "bond", ValueFormat: "no_decimals"},
		{Name: "bond_interest", Label: "bond_interest", SourceType: SourceGenerator, SourceName: "bond", Category: "bond", ValueFormat: "no_decimals"},
	}
	if diff := cmp.Diff(want, quantities); diff != "" {
		t.Errorf("CollectQuantities() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"revenue", "rate", "total_income", "total_empty", "bond_principal", "bond_interest"}, Names(quantities))
}

func TestCollectQuantities_Duplicates(t *testing.T) {
	t.Parallel()

	cats := []Category{{Name: "income", IncludeTotal: true, TotalLabel: "Total income"}}
	_, err := CollectQuantities(
		[]*config.LineItem{
			{Name: "revenue", Category: "income"},
			{Name: "revenue"},
			{Name: "total_income"},
			{Name: "bond_interest"},
		},
		cats,
		[]Generator{fakeGenerator{name: "bond", outputs: []string{"bond_interest"}}},
	)

	var dupErr *DuplicateNamesError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []string{"bond_interest", "revenue", "total_income"}, dupErr.Names)
}

func TestCollectQuantities_InvalidItems(t *testing.T) {
	t.Parallel()

	_, err := CollectQuantities(
		[]*config.LineItem{
			{Name: "has space"},
			{Name: "orphan", Category: "nowhere"},
			{Name: "fmt", ValueFormat: "roman"},
		},
		nil, nil,
	)

	require.Error(t, err)
	assert.ErrorContains(t, err, `line item "has space": name must match`)
	assert.ErrorContains(t, err, `category "nowhere" is not declared`)
	assert.ErrorContains(t, err, `unknown value format "roman"`)
}
