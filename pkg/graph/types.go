package graph

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
)

// Graph is the finished dependency graph handed to a renderer
type Graph struct {
	// Metadata contains information about the graph
	Metadata Metadata `json:"metadata"`

	// Nodes contains every discovered artifact, sorted by ID
	Nodes []Node `json:"nodes"`

	// Edges contains the resolved dependencies, sorted by endpoints
	Edges []Edge `json:"edges"`

	// Cycles lists the node sequences forming cycles, if any. Each
	// sequence repeats its first node at the end. Cycles are a
	// structural property, not an error.
	Cycles [][]string `json:"cycles,omitempty"`
}

// Metadata contains metadata about the graph
type Metadata struct {
	// Name is a human-readable name for the graph
	Name string `json:"name"`

	// Root is the scanned root directory
	Root string `json:"root,omitempty"`

	// RenderHash is a hash of the graph content for change detection
	RenderHash string `json:"renderHash,omitempty"`
}

// Node represents a single artifact in the graph
type Node struct {
	// ID is the artifact's normalized root-relative path, unique
	// within the graph
	ID string `json:"id"`

	// Kind is the artifact kind, available to renderers for styling
	Kind artifact.Kind `json:"kind"`

	// Label is the human-readable display name
	Label string `json:"label"`
}

// Edge represents a resolved dependency between two artifacts
type Edge struct {
	// Source is the referencing node's ID
	Source string `json:"source"`

	// Target is the referenced node's ID
	Target string `json:"target"`

	// Kind is the reference kind that produced this edge
	Kind extract.RefKind `json:"kind"`
}

// ComputeHash computes a content hash of the graph. Nodes and edges are
// kept in canonical order by the builder, so two scans of an unchanged
// tree hash identically.
func (g *Graph) ComputeHash() string {
	type hashableGraph struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}

	data, err := json.Marshal(hashableGraph{Nodes: g.Nodes, Edges: g.Edges})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// Validate checks the integrity of the Graph
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node ID is required")
		}
		if ids[node.ID] {
			return fmt.Errorf("duplicate node ID: %s", node.ID)
		}
		ids[node.ID] = true
	}

	for _, edge := range g.Edges {
		if !ids[edge.Source] {
			return fmt.Errorf("edge %s -> %s: source is not a node", edge.Source, edge.Target)
		}
		if !ids[edge.Target] {
			return fmt.Errorf("edge %s -> %s: target is not a node", edge.Source, edge.Target)
		}
	}

	return nil
}

// Node returns the node with the given ID
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasEdge reports whether an edge with the given endpoints and kind exists
func (g *Graph) HasEdge(source, target string, kind extract.RefKind) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}
