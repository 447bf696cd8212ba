package resolve

import (
	"path"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
)

// Conventions encodes Ansible's directory-convention search order as
// data. Candidates for a reference are probed in the order returned;
// the first existing path wins.
type Conventions struct {
	// RoleDir is the directory holding roles, relative to the scan root
	RoleDir string

	// Fallbacks maps a reference kind to the role subdirectories probed,
	// in order, after the sibling candidate fails. Only applies when the
	// referencing artifact belongs to a role.
	Fallbacks map[extract.RefKind][]string
}

// DefaultConventions returns the standard Ansible lookup rules
func DefaultConventions() Conventions {
	return Conventions{
		RoleDir: "roles",
		Fallbacks: map[extract.RefKind][]string{
			extract.RefTaskInclude:    {"tasks"},
			extract.RefHandlerInclude: {"handlers"},
			extract.RefVarsFile:       {"vars", "defaults"},
		},
	}
}

// RolePath returns the candidate directory for a role name
func (c Conventions) RolePath(name string) string {
	return path.Join(c.RoleDir, name)
}

// Candidates returns the ordered candidate paths for a file reference.
// The sibling of the referencing artifact comes first; if the artifact
// belongs to a role, the role's conventional subdirectories follow.
func (c Conventions) Candidates(ref extract.Reference) []string {
	sibling := path.Join(path.Dir(ref.Source.Path), ref.Target)
	candidates := []string{sibling}

	role, ok := artifact.RoleOf(ref.Source.Path)
	if !ok {
		return candidates
	}
	for _, sub := range c.Fallbacks[ref.Kind] {
		fallback := path.Join(c.RoleDir, role, sub, ref.Target)
		if fallback != sibling {
			candidates = append(candidates, fallback)
		}
	}
	return candidates
}
