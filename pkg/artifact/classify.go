package artifact

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnclassifiable is returned when a path matches no known Ansible
// directory convention. Callers skip such paths with a warning.
var ErrUnclassifiable = errors.New("artifact does not match any known convention")

// roleSubdirs maps a role subdirectory to the kind of the files it holds
var roleSubdirs = map[string]Kind{
	"tasks":    KindTaskFile,
	"handlers": KindHandlerFile,
	"vars":     KindVarsFile,
	"defaults": KindVarsFile,
	"meta":     KindRoleMeta,
}

// Classify determines an artifact's kind from its root-relative path.
// The decision is purely structural: it inspects path segments against
// Ansible's directory conventions and never touches the filesystem.
//
// Classification is deterministic; the same path always yields the same
// artifact.
func Classify(rel string) (Artifact, error) {
	rel = path.Clean(rel)
	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnclassifiable, rel)
	}

	segs := strings.Split(rel, "/")

	if segs[0] != "roles" {
		// Anything outside roles/ is a playbook candidate if it is YAML.
		// Confirmation (parsing as a list of plays) happens at extraction.
		if isYAML(rel) {
			return Artifact{Path: rel, Kind: KindPlaybook, Name: rel}, nil
		}
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnclassifiable, rel)
	}

	if len(segs) < 2 {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnclassifiable, rel)
	}
	role := segs[1]

	// roles/<name> with no further subpath is the role itself
	if len(segs) == 2 {
		return RoleArtifact(role), nil
	}

	kind, ok := roleSubdirs[segs[2]]
	if !ok || !isYAML(rel) {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnclassifiable, rel)
	}

	return Artifact{
		Path: rel,
		Kind: kind,
		Name: path.Join(segs[1:]...),
	}, nil
}

// RoleOf returns the name of the role enclosing a root-relative path,
// if the path lies under roles/<name>/.
func RoleOf(rel string) (string, bool) {
	segs := strings.Split(path.Clean(rel), "/")
	if len(segs) >= 2 && segs[0] == "roles" {
		return segs[1], true
	}
	return "", false
}

func isYAML(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
