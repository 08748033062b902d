// Package config defines the format-agnostic model definition read from model
// files, along with the Loader interface implemented by each file format.
//
// The `config.Model` is the single source of truth for the `engine` package.
// Concrete loaders, such as for HCL and YAML, live in separate packages.
package config
