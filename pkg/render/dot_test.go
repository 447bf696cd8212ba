package render

import (
	"strings"
	"testing"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
	"github.com/chazu/ansigraph/pkg/graph"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder("sample", ".")
	site := artifact.Artifact{Path: "site.yml", Kind: artifact.KindPlaybook, Name: "site.yml"}
	web := artifact.RoleArtifact("web")
	common := artifact.RoleArtifact("common")

	if err := b.AddEdge(site, web, extract.RefRole); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.AddEdge(web, common, extract.RefRole); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.AddEdge(common, web, extract.RefRole); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return g
}

func TestDOT(t *testing.T) {
	g := sampleGraph(t)

	var sb strings.Builder
	if err := DOT(g, &sb, DefaultOptions()); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "digraph") {
		t.Error("expected a digraph header")
	}
	for _, id := range []string{"site.yml", "roles/web", "roles/common"} {
		if !strings.Contains(out, id) {
			t.Errorf("expected node %q in output", id)
		}
	}
	if got := strings.Count(out, "->"); got != 3 {
		t.Errorf("expected 3 edge statements, got %d", got)
	}
	if !strings.Contains(out, "web") {
		t.Error("expected node labels in output")
	}
	// Both roles are cycle members and should be highlighted
	if !strings.Contains(out, "red") {
		t.Error("expected cycle highlighting in output")
	}
}

func TestDOTWithoutCycleHighlight(t *testing.T) {
	g := sampleGraph(t)

	var sb strings.Builder
	opts := DefaultOptions()
	opts.HighlightCycles = false
	if err := DOT(g, &sb, opts); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if strings.Contains(sb.String(), "red") {
		t.Error("expected no cycle highlighting")
	}
}

func TestTree(t *testing.T) {
	artifacts := []artifact.Artifact{
		{Path: "site.yml", Kind: artifact.KindPlaybook, Name: "site.yml"},
		artifact.RoleArtifact("web"),
		{Path: "roles/web/tasks/main.yml", Kind: artifact.KindTaskFile, Name: "web/tasks/main.yml"},
	}

	var sb strings.Builder
	if err := Tree("example-repo", artifacts, &sb); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	out := sb.String()

	for _, want := range []string{"example-repo", "site.yml", "web", "main.yml", "[Playbook]", "[Role]", "[TaskFile]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in tree output:\n%s", want, out)
		}
	}
}
