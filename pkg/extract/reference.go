package extract

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chazu/ansigraph/pkg/artifact"
)

// RefKind identifies the type of a cross-file reference
type RefKind string

const (
	// RefRole is a role inclusion (roles: list item, include_role task,
	// or a role-meta dependency)
	RefRole RefKind = "RoleRef"

	// RefTaskInclude is an include/include_tasks/import_tasks target
	// inside a playbook or task file
	RefTaskInclude RefKind = "TaskIncludeRef"

	// RefHandlerInclude is an include-style target inside a handler file
	RefHandlerInclude RefKind = "HandlerIncludeRef"

	// RefVarsFile is a vars_files list item
	RefVarsFile RefKind = "VarsFileRef"

	// RefPlaybookInclude is a play-level include/import_playbook target
	RefPlaybookInclude RefKind = "PlaybookIncludeRef"
)

// Reference is an unresolved mention of one artifact inside another.
// Target carries the raw string as written in the YAML source.
type Reference struct {
	Kind   RefKind
	Target string
	Source artifact.Artifact
}

// Parse decodes raw file bytes into a YAML node tree. The node form is
// used instead of an untyped map so that extraction sees mapping keys in
// document order.
func Parse(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &doc, nil
}
