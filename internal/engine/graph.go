package engine

import (
	"github.com/vk/proformagrid/internal/config"
	"github.com/vk/proformagrid/internal/dag"
	"github.com/vk/proformagrid/internal/formula"
	"github.com/vk/proformagrid/internal/metadata"
)

// Graph builds the same-year dependency graph of the model. Formulas that can
// never be evaluated, because a constant or a value for every year takes
// precedence, contribute no edges. References to unknown names are skipped;
// Validate reports them.
func (e *Engine) Graph() (*dag.Graph, error) {
	g := dag.New()
	for _, q := range e.meta.Quantities {
		g.AddNode(q.Name)
	}

	members := make(map[string][]string)
	for _, q := range e.meta.Quantities {
		if q.SourceType == metadata.SourceLineItem && q.Category != "" {
			members[q.Category] = append(members[q.Category], q.Name)
		}
	}

	for _, item := range e.model.LineItems {
		if !e.usesFormula(item) {
			continue
		}
		f, err := formula.Parse(item.Formula)
		if err != nil {
			return nil, err
		}
		for _, ref := range f.References() {
			if ref.Offset != 0 || !g.Has(ref.Name) {
				continue
			}
			if err := g.AddEdge(ref.Name, item.Name); err != nil {
				return nil, err
			}
		}
		for _, cat := range f.Categories() {
			for _, member := range members[cat] {
				if err := g.AddEdge(member, item.Name); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, c := range e.meta.Categories {
		if !c.IncludeTotal {
			continue
		}
		total := metadata.TotalName(c.Name)
		for _, member := range members[c.Name] {
			if err := g.AddEdge(member, total); err != nil {
				return nil, err
			}
		}
	}

	for _, gen := range e.generators {
		for _, ref := range gen.References() {
			if !g.Has(ref) {
				continue
			}
			for _, out := range gen.Outputs() {
				if err := g.AddEdge(ref, out); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func (e *Engine) usesFormula(item *config.LineItem) bool {
	if item.Formula == "" || item.Constant != nil {
		return false
	}
	for _, y := range e.model.Years {
		if v, ok := item.Values[y]; !ok || v == nil {
			return true
		}
	}
	return false
}
