package scan

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/chazu/ansigraph/pkg/artifact"
)

// defaultSkipDirs are directory names that never hold referenceable
// YAML: file payloads, templates, plugin code, and VCS metadata.
var defaultSkipDirs = []string{
	"files",
	"templates",
	"library",
	"filter_plugins",
	"lookup_plugins",
	".git",
}

// walk enumerates the classified artifacts of the tree in lexical
// order. Unclassifiable YAML files are recorded as warnings; other
// files are ignored silently.
func (s *Scanner) walk() ([]artifact.Artifact, []Warning, error) {
	var artifacts []artifact.Artifact
	var warnings []Warning

	skip := make(map[string]bool, len(s.opts.SkipDirs))
	for _, d := range s.opts.SkipDirs {
		skip[d] = true
	}

	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		if d.IsDir() {
			if skip[d.Name()] {
				s.logger.Debug("skipping directory", zap.String("path", p))
				return fs.SkipDir
			}
			// roles/<name> is itself an artifact
			if a, cerr := artifact.Classify(p); cerr == nil && a.Kind == artifact.KindRole {
				artifacts = append(artifacts, a)
			}
			return nil
		}

		if !isYAML(p) {
			return nil
		}

		a, cerr := artifact.Classify(p)
		if cerr != nil {
			if errors.Is(cerr, artifact.ErrUnclassifiable) {
				warnings = append(warnings, Warning{
					Path:   p,
					Reason: ReasonUnclassifiable,
					Detail: cerr.Error(),
				})
				return nil
			}
			return cerr
		}
		artifacts = append(artifacts, a)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return artifacts, warnings, nil
}

func isYAML(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
