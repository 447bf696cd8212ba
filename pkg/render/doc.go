// Package render turns a finished dependency graph into drawable
// output. The DOT renderer produces Graphviz text with per-kind node
// and edge styling and optional cycle highlighting; the tree renderer
// prints the scanned artifact inventory as an indented tree.
package render
