package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/extract"
	"github.com/chazu/ansigraph/pkg/graph"
	"github.com/chazu/ansigraph/pkg/resolve"
)

// Options contains configuration for a scan
type Options struct {
	// Parallelism is the maximum number of files parsed concurrently.
	// Graph writes stay serialized regardless.
	// Default: 8
	Parallelism int

	// Kinds filters which artifact kinds contribute nodes and edges.
	// Empty means all kinds.
	Kinds []artifact.Kind

	// SkipDirs lists directory names never descended into
	SkipDirs []string
}

// DefaultOptions returns the default scan configuration
func DefaultOptions() Options {
	return Options{
		Parallelism: 8,
		SkipDirs:    defaultSkipDirs,
	}
}

// Scanner runs the scan pipeline over a single directory tree
type Scanner struct {
	name      string
	root      string
	fsys      fs.StatFS
	extractor *extract.Extractor
	resolver  *resolve.Resolver
	logger    *zap.Logger
	opts      Options
}

// New creates a scanner over an injected filesystem rooted at the scan
// root. name labels the resulting graph.
func New(fsys fs.StatFS, name string, logger *zap.Logger, opts Options) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 8
	}
	return &Scanner{
		name:      name,
		root:      ".",
		fsys:      fsys,
		extractor: extract.NewExtractor(logger),
		resolver:  resolve.New(fsys, resolve.DefaultConventions(), logger),
		logger:    logger,
		opts:      opts,
	}
}

// NewFromDir creates a scanner over a real directory. An invalid or
// inaccessible root is the one fatal condition of the whole run, so it
// is checked here, before any scanning begins.
func NewFromDir(root string, logger *zap.Logger, opts Options) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid scan root: %s is not a directory", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid scan root: %w", err)
	}

	fsys, ok := os.DirFS(root).(fs.StatFS)
	if !ok {
		return nil, fmt.Errorf("filesystem for %s does not support Stat", root)
	}

	s := New(fsys, filepath.Base(abs), logger, opts)
	s.root = abs
	return s, nil
}

// parsed holds the extraction result for one file; results are indexed
// by walk position so the reference order stays deterministic even with
// parallel parsing.
type parsed struct {
	refs    []extract.Reference
	warning *Warning
}

// Scan runs the pipeline: walk, parse and extract with a bounded worker
// pool, resolve, and build. The returned report carries the inventory,
// the warnings, and the dangling references; the returned graph is
// finalized and ready for rendering.
func (s *Scanner) Scan(ctx context.Context) (*graph.Graph, *Report, error) {
	artifacts, warnings, err := s.walk()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk tree: %w", err)
	}

	report := &Report{Inventory: artifacts, Warnings: warnings}
	sources := s.parseSources(artifacts)
	results := make([]parsed, len(sources))

	// Parsing is pure per-file work and may fan out; everything that
	// touches shared state below stays on this goroutine.
	p := pool.New().WithMaxGoroutines(s.opts.Parallelism).WithContext(ctx)
	for i, src := range sources {
		p.Go(func(ctx context.Context) error {
			results[i] = s.parseOne(src)
			return ctx.Err()
		})
	}
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	builder := graph.NewBuilder(s.name, s.root)

	for _, a := range artifacts {
		node := nodeArtifact(a)
		if !s.includeKind(node.Kind) {
			continue
		}
		if _, err := builder.AddArtifact(node); err != nil {
			return nil, nil, err
		}
	}

	s.addRoleEntrypoints(builder, artifacts)

	for _, result := range results {
		if result.warning != nil {
			report.Warnings = append(report.Warnings, *result.warning)
		}
		for _, ref := range result.refs {
			target, failure := s.resolver.Resolve(ref)
			if failure != nil {
				report.Dangling = append(report.Dangling, *failure)
				continue
			}
			target = nodeArtifact(target)
			if !s.includeKind(target.Kind) {
				continue
			}
			if err := builder.AddEdge(nodeArtifact(ref.Source), target, ref.Kind); err != nil {
				return nil, nil, err
			}
		}
	}

	g, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("scan complete",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Int("cycles", len(g.Cycles)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Int("dangling", len(report.Dangling)))

	return g, report, nil
}

// parseSources selects the artifacts whose content is parsed for
// references, honoring the kind filter on the source side.
func (s *Scanner) parseSources(artifacts []artifact.Artifact) []artifact.Artifact {
	var sources []artifact.Artifact
	for _, a := range artifacts {
		switch a.Kind {
		case artifact.KindPlaybook, artifact.KindTaskFile, artifact.KindHandlerFile, artifact.KindRoleMeta:
			if s.includeKind(nodeArtifact(a).Kind) {
				sources = append(sources, a)
			}
		}
	}
	return sources
}

// parseOne reads, parses, and extracts a single file. All failures
// downgrade to a MalformedArtifact warning.
func (s *Scanner) parseOne(src artifact.Artifact) parsed {
	data, err := fs.ReadFile(s.fsys, src.Path)
	if err != nil {
		return parsed{warning: &Warning{Path: src.Path, Reason: ReasonMalformed, Detail: err.Error()}}
	}

	doc, err := extract.Parse(data)
	if err != nil {
		s.logger.Debug("failed to parse file", zap.String("path", src.Path), zap.Error(err))
		return parsed{warning: &Warning{Path: src.Path, Reason: ReasonMalformed, Detail: err.Error()}}
	}

	refs, err := s.extractor.Extract(src, doc)
	if err != nil {
		// Shape mismatches and anything unexpected downgrade alike
		return parsed{warning: &Warning{Path: src.Path, Reason: ReasonMalformed, Detail: err.Error()}}
	}
	return parsed{refs: refs}
}

// addRoleEntrypoints links each role node to its conventional entry
// files (tasks/main, handlers/main, vars/main, defaults/main), so the
// chains inside a role are reachable from the role itself.
func (s *Scanner) addRoleEntrypoints(builder *graph.Builder, artifacts []artifact.Artifact) {
	byPath := make(map[string]artifact.Artifact, len(artifacts))
	for _, a := range artifacts {
		byPath[a.Path] = a
	}

	entryKinds := map[string]extract.RefKind{
		"tasks":    extract.RefTaskInclude,
		"handlers": extract.RefHandlerInclude,
		"vars":     extract.RefVarsFile,
		"defaults": extract.RefVarsFile,
	}

	for _, a := range artifacts {
		if a.Kind != artifact.KindRole || !s.includeKind(artifact.KindRole) {
			continue
		}
		for sub, kind := range entryKinds {
			for _, ext := range []string{"main.yml", "main.yaml"} {
				entry, ok := byPath[path.Join(a.Path, sub, ext)]
				if !ok || !s.includeKind(entry.Kind) {
					continue
				}
				if err := builder.AddEdge(a, entry, kind); err != nil {
					s.logger.Debug("failed to link role entrypoint",
						zap.String("role", a.Name), zap.Error(err))
				}
			}
		}
	}
}

// includeKind applies the artifact-kind filter
func (s *Scanner) includeKind(k artifact.Kind) bool {
	if len(s.opts.Kinds) == 0 {
		return true
	}
	for _, allowed := range s.opts.Kinds {
		if allowed == k {
			return true
		}
	}
	return false
}

// nodeArtifact maps an artifact to the graph node it contributes.
// Role meta files are not nodes of their own: their references belong
// to the role, so a meta artifact maps onto its role's node.
func nodeArtifact(a artifact.Artifact) artifact.Artifact {
	if a.Kind == artifact.KindRoleMeta {
		if role, ok := artifact.RoleOf(a.Path); ok {
			return artifact.RoleArtifact(role)
		}
	}
	return a
}
