package scan

import (
	"fmt"
	"io"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/resolve"
)

// WarningReason classifies a per-file warning
type WarningReason string

const (
	// ReasonUnclassifiable marks a path matching no known convention
	ReasonUnclassifiable WarningReason = "UnclassifiableArtifact"

	// ReasonMalformed marks a YAML parse failure or unexpected shape
	ReasonMalformed WarningReason = "MalformedArtifact"
)

// Warning records a skipped file. Warnings never abort the run.
type Warning struct {
	// Path is the root-relative path of the skipped file
	Path string

	// Reason classifies the warning
	Reason WarningReason

	// Detail is the underlying error text
	Detail string
}

// Report summarizes everything the scan could not turn into graph
// content: skipped files and dangling references.
type Report struct {
	// Inventory lists every classified artifact, in walk order
	Inventory []artifact.Artifact

	// Warnings lists files that were skipped
	Warnings []Warning

	// Dangling lists references whose target could not be located.
	// Each failed reference appears exactly once and contributes no
	// edge to the graph.
	Dangling []resolve.Failure
}

// Summary writes a human-readable wrap-up of the report
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "scanned %d artifacts\n", len(r.Inventory))

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s: %s (%s)\n", warn.Reason, warn.Path, warn.Detail)
	}
	for _, f := range r.Dangling {
		fmt.Fprintf(w, "dangling: %s references %s %q: %s\n",
			f.Ref.Source.Path, f.Ref.Kind, f.Ref.Target, f.Reason)
	}

	if len(r.Warnings) == 0 && len(r.Dangling) == 0 {
		fmt.Fprintln(w, "no warnings")
	}
}
