// Package codegen turns an extracted schema document into named,
// dependency-ordered artifacts.
//
// # Architecture
//
// The package uses a two-layer design:
//  1. Language-agnostic plumbing (this package) defines Artifact, the
//     Generator interface, and the dependency-ordering pass.
//  2. Language-specific generators (typescript/) walk the schema document
//     and format artifacts for their target language.
//
// Generators are pure transforms: they share only the read-only schema
// document, never mutate shared state, and may run in parallel. Identical
// input schema plus identical generator configuration yields byte-identical
// output on every run; nothing may depend on unordered map iteration.
//
// # Failure policy
//
// A malformed individual schema entry produces an ArtifactError that is
// collected and reported; it does not abort generation of the remaining
// entries or of sibling generators.
package codegen

import (
	"github.com/Cstannahill/farm-framework/schema"
)

// Generator transforms a schema document into artifacts for one concern
// (raw types, client bindings, framework hooks).
type Generator interface {
	// Name identifies the generator in logs and error reports.
	Name() string

	// Generate walks the document and produces artifacts plus any
	// per-entity errors. A non-empty error slice does not invalidate the
	// returned artifacts.
	Generate(doc *schema.Document) ([]Artifact, []error)
}

// Assembler renders ordered artifacts into complete output files keyed by
// relative file name. Artifacts arrive already dependency-ordered.
type Assembler interface {
	Assemble(artifacts []Artifact) (map[string][]byte, error)
}
