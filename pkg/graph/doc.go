// Package graph provides the dependency graph model for automation
// artifacts and the builder that assembles it. The builder deduplicates
// nodes by normalized path, collapses repeated references into single
// edges, and records cycles as metadata at build time. The finished
// Graph is immutable and ready to hand to a renderer.
package graph
