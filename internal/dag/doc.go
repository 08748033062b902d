// Package dag holds the static dependency graph of a model's quantities.
//
// An edge a -> b means that b reads a in the same year. Prior-year references
// never create edges, so a valid model graph is acyclic. The graph is used to
// report circular definitions before any value is computed and to render the
// dependency tree of a single quantity.
package dag
