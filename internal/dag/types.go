package dag

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a set of quantities and the same-year dependencies between them.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by quantity name.
	nodes map[string]*node
}

// node is a single quantity. It is un-exported so that callers work with
// quantity names only.
type node struct {
	id string
	// deps holds the quantities this one reads.
	deps map[string]*node
	// dependents holds the quantities that read this one.
	dependents map[string]*node
}

// CycleError reports a circular chain of dependencies. Path starts and ends
// with the same quantity.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Members returns the distinct quantities on the cycle.
func (e *CycleError) Members() []string {
	if len(e.Path) == 0 {
		return nil
	}
	return append([]string(nil), e.Path[:len(e.Path)-1]...)
}
