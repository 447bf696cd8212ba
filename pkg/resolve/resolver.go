package resolve

import (
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
)

// Reason explains why a reference failed to resolve
type Reason string

const (
	// ReasonNotFound indicates the target does not exist on disk
	ReasonNotFound Reason = "NotFound"
)

// Failure records a reference whose target could not be located. It is
// surfaced in the run report as a dangling reference, never as an error.
type Failure struct {
	Ref    extract.Reference
	Reason Reason
}

// naturalKinds maps a reference kind to the artifact kind its target
// assumes when path classification cannot decide
var naturalKinds = map[extract.RefKind]artifact.Kind{
	extract.RefTaskInclude:     artifact.KindTaskFile,
	extract.RefHandlerInclude:  artifact.KindHandlerFile,
	extract.RefVarsFile:        artifact.KindVarsFile,
	extract.RefPlaybookInclude: artifact.KindPlaybook,
}

// Resolver locates the concrete artifact a reference designates. The
// filesystem is injected so resolution rules can be exercised against
// fstest.MapFS fixtures.
type Resolver struct {
	fsys   fs.StatFS
	conv   Conventions
	logger *zap.Logger
}

// New creates a resolver over the given filesystem, which must be
// rooted at the scan root.
func New(fsys fs.StatFS, conv Conventions, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fsys: fsys, conv: conv, logger: logger}
}

// Resolve locates the artifact a reference designates. On success the
// returned artifact's path is normalized and root-relative, suitable as
// a graph node identity. On failure a *Failure is returned instead.
func (r *Resolver) Resolve(ref extract.Reference) (artifact.Artifact, *Failure) {
	if ref.Kind == extract.RefRole {
		return r.resolveRole(ref)
	}
	return r.resolveFile(ref)
}

// resolveRole resolves a role name to its directory under the role dir
func (r *Resolver) resolveRole(ref extract.Reference) (artifact.Artifact, *Failure) {
	name := path.Clean(ref.Target)
	candidate := r.conv.RolePath(name)
	info, err := r.fsys.Stat(candidate)
	if err != nil || !info.IsDir() {
		r.logger.Debug("role reference did not resolve",
			zap.String("source", ref.Source.Path),
			zap.String("role", ref.Target))
		return artifact.Artifact{}, &Failure{Ref: ref, Reason: ReasonNotFound}
	}
	return artifact.RoleArtifact(name), nil
}

// resolveFile probes the convention candidates for a file reference
func (r *Resolver) resolveFile(ref extract.Reference) (artifact.Artifact, *Failure) {
	for _, candidate := range r.conv.Candidates(ref) {
		candidate = path.Clean(candidate)
		if candidate == "" || strings.HasPrefix(candidate, "..") {
			// References must stay inside the scanned tree
			continue
		}
		info, err := r.fsys.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return r.classified(ref, candidate), nil
	}
	return artifact.Artifact{}, &Failure{Ref: ref, Reason: ReasonNotFound}
}

// classified derives the resolved artifact for an existing candidate
// path. The reference kind dictates the artifact kind: a top-level file
// pulled in through include_tasks is a task file no matter where it
// sits. Path classification only contributes the display name when it
// agrees.
func (r *Resolver) classified(ref extract.Reference, candidate string) artifact.Artifact {
	kind := naturalKinds[ref.Kind]
	if a, err := artifact.Classify(candidate); err == nil && a.Kind == kind {
		return a
	}
	return artifact.Artifact{
		Path: candidate,
		Kind: kind,
		Name: candidate,
	}
}
