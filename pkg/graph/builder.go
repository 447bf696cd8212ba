package graph

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	gr "github.com/dominikbraun/graph"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
)

// ErrFinalized is returned when a builder is mutated after Build
var ErrFinalized = errors.New("graph has been finalized")

// edgeKey identifies an edge; repeated references collapse onto it
type edgeKey struct {
	source string
	target string
	kind   extract.RefKind
}

// Builder accumulates artifacts and resolved references into a Graph.
// All methods are safe for concurrent use: a mutex serializes writes so
// a parallelized front-end (concurrent parsing) cannot corrupt the
// node/edge sets.
type Builder struct {
	mu        sync.Mutex
	name      string
	root      string
	nodes     map[string]Node
	edges     map[edgeKey]struct{}
	backing   gr.Graph[string, artifact.Artifact]
	finalized bool
}

// NewBuilder creates an empty graph builder. Cycles are permitted; the
// backing store is created without cycle prevention and detection runs
// once at Build time.
func NewBuilder(name, root string) *Builder {
	backing := gr.New(func(a artifact.Artifact) string {
		return a.Path
	}, gr.Directed())

	return &Builder{
		name:    name,
		root:    root,
		nodes:   make(map[string]Node),
		edges:   make(map[edgeKey]struct{}),
		backing: backing,
	}
}

// AddArtifact registers an artifact as a graph node. It is idempotent:
// re-adding an artifact with the same normalized path returns the
// existing node unchanged.
func (b *Builder) AddArtifact(a artifact.Artifact) (Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return Node{}, ErrFinalized
	}
	return b.addLocked(a), nil
}

// AddEdge records a resolved dependency. Both endpoints are registered
// as nodes if not already present, so an edge can never dangle. Adding
// the same (source, target, kind) triple again is a no-op.
func (b *Builder) AddEdge(source, target artifact.Artifact, kind extract.RefKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrFinalized
	}

	src := b.addLocked(source)
	dst := b.addLocked(target)

	key := edgeKey{source: src.ID, target: dst.ID, kind: kind}
	if _, exists := b.edges[key]; exists {
		return nil
	}
	b.edges[key] = struct{}{}

	// The backing store keeps one edge per ordered pair; additional
	// kinds between the same pair live only in the edge set.
	if err := b.backing.AddEdge(src.ID, dst.ID); err != nil && !errors.Is(err, gr.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add edge %s -> %s: %w", src.ID, dst.ID, err)
	}
	return nil
}

// addLocked creates or returns the node for an artifact. Caller holds the lock.
func (b *Builder) addLocked(a artifact.Artifact) Node {
	id := path.Clean(a.Path)
	if existing, ok := b.nodes[id]; ok {
		return existing
	}

	node := Node{ID: id, Kind: a.Kind, Label: a.Name}
	b.nodes[id] = node

	a.Path = id
	if err := b.backing.AddVertex(a); err != nil && !errors.Is(err, gr.ErrVertexAlreadyExists) {
		// The only other failure mode is a hash collision on the path,
		// which the nodes map already rules out.
		panic(fmt.Sprintf("inconsistent backing graph: %v", err))
	}
	return node
}

// Build finalizes the builder and returns the completed graph. It is
// the single transition from accumulating to finalized; any mutation
// afterward fails with ErrFinalized. Cycle detection runs here, once,
// over the finished edge set.
func (b *Builder) Build() (*Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return nil, ErrFinalized
	}
	b.finalized = true

	nodes := make([]Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]Edge, 0, len(b.edges))
	for key := range b.edges {
		edges = append(edges, Edge{Source: key.source, Target: key.target, Kind: key.kind})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Kind < edges[j].Kind
	})

	adjMap, err := b.backing.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency map: %w", err)
	}

	g := &Graph{
		Metadata: Metadata{Name: b.name, Root: b.root},
		Nodes:    nodes,
		Edges:    edges,
		Cycles:   findCycles(nodes, adjMap),
	}
	g.Metadata.RenderHash = g.ComputeHash()

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}
	return g, nil
}
