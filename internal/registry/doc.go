// Package registry maps generator kinds to the constructors that build them.
//
// The Registry is filled explicitly at startup by each compiled-in Module
// (see app.coreModules) and is never modified afterwards. Model files name a
// kind in their `generator "<kind>" "<name>"` blocks; the registry turns each
// such block into a ready generator.Generator, or reports every block it
// cannot build.
package registry
