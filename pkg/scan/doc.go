// Package scan drives the whole pipeline: it walks an Ansible directory
// tree, classifies artifacts, parses and extracts references with a
// bounded worker pool, resolves them against the tree, and assembles
// the dependency graph. Per-file problems are downgraded to warnings;
// the philosophy is best-effort graph, complete warning report. The
// only fatal condition is an invalid scan root.
package scan
