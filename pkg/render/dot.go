package render

import (
	"errors"
	"fmt"
	"io"

	gr "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
	"github.com/chazu/ansigraph/pkg/graph"
)

// Options controls DOT output
type Options struct {
	// RankDir is the Graphviz layout direction (TB, LR, ...)
	RankDir string

	// HighlightCycles draws cycle members with a red border
	HighlightCycles bool
}

// DefaultOptions returns the default DOT rendering options
func DefaultOptions() Options {
	return Options{RankDir: "TB", HighlightCycles: true}
}

// nodeColors styles nodes by artifact kind, following the palette of
// classic Ansible graphing tools (plays green, roles blue, tasks orange)
var nodeColors = map[artifact.Kind]string{
	artifact.KindPlaybook:    "green",
	artifact.KindRole:        "blue",
	artifact.KindTaskFile:    "orange",
	artifact.KindHandlerFile: "darkorange",
	artifact.KindVarsFile:    "gray50",
	artifact.KindRoleMeta:    "gray50",
}

// edgeColors styles edges by reference kind
var edgeColors = map[extract.RefKind]string{
	extract.RefRole:            "blue",
	extract.RefTaskInclude:     "orange",
	extract.RefHandlerInclude:  "darkorange",
	extract.RefVarsFile:        "gray50",
	extract.RefPlaybookInclude: "black",
}

// DOT writes the graph as Graphviz DOT text. Rasterizing the output is
// left to the dot binary downstream.
func DOT(g *graph.Graph, w io.Writer, opts Options) error {
	if opts.RankDir == "" {
		opts.RankDir = "TB"
	}

	cyclic := make(map[string]bool)
	if opts.HighlightCycles {
		for _, cycle := range g.Cycles {
			for _, id := range cycle {
				cyclic[id] = true
			}
		}
	}

	d := gr.New(gr.StringHash, gr.Directed())

	for _, node := range g.Nodes {
		attrs := []func(*gr.VertexProperties){
			gr.VertexAttribute("label", node.Label),
			gr.VertexAttribute("shape", "box"),
			gr.VertexAttribute("style", "rounded, filled"),
			gr.VertexAttribute("fillcolor", "white"),
			gr.VertexAttribute("color", nodeColor(node.Kind)),
		}
		if cyclic[node.ID] {
			attrs = append(attrs,
				gr.VertexAttribute("color", "red"),
				gr.VertexAttribute("penwidth", "2"))
		}
		if err := d.AddVertex(node.ID, attrs...); err != nil {
			return fmt.Errorf("failed to add vertex %s: %w", node.ID, err)
		}
	}

	for _, edge := range g.Edges {
		err := d.AddEdge(edge.Source, edge.Target, gr.EdgeAttribute("color", edgeColor(edge.Kind)))
		if err != nil {
			// Parallel reference kinds collapse onto one drawn edge
			if errors.Is(err, gr.ErrEdgeAlreadyExists) {
				continue
			}
			return fmt.Errorf("failed to add edge %s -> %s: %w", edge.Source, edge.Target, err)
		}
	}

	return draw.DOT(d, w,
		draw.GraphAttribute("rankdir", opts.RankDir),
		draw.GraphAttribute("label", g.Metadata.Name),
		draw.GraphAttribute("labelloc", "t"))
}

func nodeColor(kind artifact.Kind) string {
	if c, ok := nodeColors[kind]; ok {
		return c
	}
	return "black"
}

func edgeColor(kind extract.RefKind) string {
	if c, ok := edgeColors[kind]; ok {
		return c
	}
	return "black"
}
