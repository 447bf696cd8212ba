package artifact

import (
	"fmt"
	"path"
	"strings"
)

// Kind identifies the type of an automation artifact
type Kind string

const (
	// KindPlaybook is a top-level YAML file defining an ordered list of plays
	KindPlaybook Kind = "Playbook"

	// KindRole is a conventionally-structured role directory under roles/
	KindRole Kind = "Role"

	// KindTaskFile is a YAML file under a role's tasks/ directory
	KindTaskFile Kind = "TaskFile"

	// KindHandlerFile is a YAML file under a role's handlers/ directory
	KindHandlerFile Kind = "HandlerFile"

	// KindVarsFile is a YAML file under a role's vars/ or defaults/ directory
	KindVarsFile Kind = "VarsFile"

	// KindRoleMeta is a role's meta/ file, carrying its dependency list
	KindRoleMeta Kind = "RoleMeta"
)

// Kinds returns all artifact kinds, in stable order
func Kinds() []Kind {
	return []Kind{
		KindPlaybook,
		KindRole,
		KindTaskFile,
		KindHandlerFile,
		KindVarsFile,
		KindRoleMeta,
	}
}

// ParseKind converts a user-supplied kind name to a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown artifact kind: %q", s)
}

// Artifact is a unique filesystem entity within the scanned tree.
// Identity is the normalized root-relative Path; two artifacts with the
// same Path are the same entity.
type Artifact struct {
	// Path is the slash-separated path relative to the scan root,
	// normalized with path.Clean. It is the dedup key for graph nodes.
	Path string

	// Kind is the classified artifact kind
	Kind Kind

	// Name is the human-readable display label derived from the path
	Name string
}

// RoleArtifact returns the canonical artifact for a role, identified by
// its directory under roles/.
func RoleArtifact(name string) Artifact {
	return Artifact{
		Path: path.Join("roles", name),
		Kind: KindRole,
		Name: name,
	}
}
