package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ddddddO/gtree"

	"github.com/chazu/ansigraph/pkg/artifact"
)

// Tree prints the scanned artifact inventory as an indented tree rooted
// at the scan directory, annotating each leaf with its kind.
func Tree(rootName string, artifacts []artifact.Artifact, w io.Writer) error {
	sorted := make([]artifact.Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	root := gtree.NewRoot(rootName)
	branches := map[string]*gtree.Node{"": root}

	for _, a := range sorted {
		segs := strings.Split(a.Path, "/")
		prefix := ""
		parent := root
		for i, seg := range segs {
			label := seg
			if i == len(segs)-1 {
				label = fmt.Sprintf("%s  [%s]", seg, a.Kind)
			}
			key := prefix + "/" + seg
			node, ok := branches[key]
			if !ok {
				node = parent.Add(label)
				branches[key] = node
			}
			parent = node
			prefix = key
		}
	}

	return gtree.OutputProgrammably(w, root)
}
