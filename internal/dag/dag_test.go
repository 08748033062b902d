package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("revenue")
	assert.Len(t, g.nodes, 1)
	n, ok := g.nodes["revenue"]
	require.True(t, ok)
	assert.Equal(t, "revenue", n.id)
	assert.NotNil(t, n.deps)
	assert.NotNil(t, n.dependents)

	g.AddNode("revenue") // Test idempotency
	assert.Len(t, g.nodes, 1)
	assert.True(t, g.Has("revenue"))
	assert.False(t, g.Has("costs"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("revenue")
		g.AddNode("costs")

		err := g.AddEdge("revenue", "costs") // costs reads revenue
		require.NoError(t, err)

		deps, err := g.Dependencies("costs")
		require.NoError(t, err)
		assert.Equal(t, []string{"revenue"}, deps)

		dependents, err := g.Dependents("revenue")
		require.NoError(t, err)
		assert.Equal(t, []string{"costs"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a"}, cycle.Members())

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		for _, id := range []string{"a", "b", "c", "d"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("x")
		g.AddNode("y")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "x"))

		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"x", "y", "x"}, cycle.Path)
		assert.EqualError(t, err, "cycle detected: x -> y -> x")
	})

	t.Run("cycle in a disjoint component names only its members", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y"))

		err := g.DetectCycles()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"y", "z"}, cycle.Members())
	})
}

func TestTree(t *testing.T) {
	g := New()
	for _, id := range []string{"revenue", "costs", "profit"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("revenue", "costs"))
	require.NoError(t, g.AddEdge("revenue", "profit"))
	require.NoError(t, g.AddEdge("costs", "profit"))

	tree, err := g.Tree("profit")
	require.NoError(t, err)

	want := "profit\n" +
		"├── costs\n" +
		"│   └── revenue\n" +
		"└── revenue\n"
	assert.Equal(t, want, tree.String())

	leaf, err := g.Tree("revenue")
	require.NoError(t, err)
	assert.Equal(t, "revenue\n", leaf.String())

	_, err = g.Tree("dne")
	assert.ErrorContains(t, err, "node not found")
}
