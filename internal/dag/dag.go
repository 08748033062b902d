package dag

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a quantity to the graph. Adding an existing quantity does
// nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// Has reports whether the graph contains id.
func (g *Graph) Has(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that toID reads fromID. Both nodes must exist. A node
// reading itself is reported as a one-node cycle.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return &CycleError{Path: []string{fromID, fromID}}
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns the sorted names that id reads.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the sorted names that read id.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// DetectCycles returns a *CycleError for the first cycle found, visiting
// nodes in name order so the result is stable.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Depth-first search over dependents. permanent holds nodes known to be
	// outside any cycle; stack holds the current path.
	permanent := make(map[string]bool)
	onStack := make(map[string]int)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if i, ok := onStack[n.id]; ok {
			path := append(append([]string(nil), stack[i:]...), n.id)
			return &CycleError{Path: path}
		}

		onStack[n.id] = len(stack)
		stack = append(stack, n.id)

		for _, id := range sortedIDs(n.dependents) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range sortedIDs(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// Tree renders the transitive dependencies of id. A quantity already shown on
// the current branch is printed once more with a marker instead of expanding
// it again.
func (g *Graph) Tree(id string) (treeprint.Tree, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	root, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	tree := treeprint.NewWithRoot(id)
	var add func(t treeprint.Tree, n *node, path map[string]bool)
	add = func(t treeprint.Tree, n *node, path map[string]bool) {
		for _, depID := range sortedIDs(n.deps) {
			dep := n.deps[depID]
			if path[depID] {
				t.AddNode(depID + " (cycle)")
				continue
			}
			if len(dep.deps) == 0 {
				t.AddNode(depID)
				continue
			}
			path[depID] = true
			add(t.AddBranch(depID), dep, path)
			delete(path, depID)
		}
	}
	add(tree, root, map[string]bool{id: true})
	return tree, nil
}

func sortedIDs(nodes map[string]*node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
