// Package engine is the library boundary of proformagrid. It turns a loaded
// config.Model into generators, metadata and resolver definitions, and
// exposes generation, static validation, constraint checks and dependency
// inspection on top of them.
package engine
