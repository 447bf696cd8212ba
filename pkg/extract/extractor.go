package extract

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chazu/ansigraph/pkg/artifact"
)

// ErrMalformed is returned when a document's shape does not match what
// its artifact kind requires (e.g. a playbook that is not a list of
// plays). Callers record it as a warning; it is never fatal.
var ErrMalformed = errors.New("document shape does not match artifact kind")

// taskIncludeKeys are the keys whose value names an included task file
var taskIncludeKeys = map[string]bool{
	"include":       true,
	"include_tasks": true,
	"import_tasks":  true,
}

// playIncludeKeys are the play-level keys naming an included playbook
var playIncludeKeys = map[string]bool{
	"include":         true,
	"import_playbook": true,
}

// roleIncludeKeys are the task-level keys naming an included role
var roleIncludeKeys = map[string]bool{
	"include_role": true,
	"import_role":  true,
}

// blockKeys are the task keys holding nested task lists
var blockKeys = map[string]bool{
	"block":  true,
	"rescue": true,
	"always": true,
}

// Extractor produces typed references from parsed YAML documents.
// A single Extractor is safe for concurrent use; it holds no
// per-document state.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new reference extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract walks the document tree of an artifact and returns its
// references in document order. The returned slice is complete for the
// document; a document whose shape does not match the artifact kind
// yields (nil, ErrMalformed).
func (e *Extractor) Extract(src artifact.Artifact, doc *yaml.Node) ([]Reference, error) {
	root := unwrapDocument(doc)
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var refs []Reference
	emit := func(kind RefKind, rawTarget string) {
		target, ok := e.cleanTarget(src, rawTarget)
		if !ok {
			return
		}
		refs = append(refs, Reference{Kind: kind, Target: target, Source: src})
	}

	switch src.Kind {
	case artifact.KindPlaybook:
		if root.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: playbook is not a list of plays", ErrMalformed)
		}
		for _, play := range root.Content {
			if play.Kind != yaml.MappingNode {
				continue
			}
			e.extractPlay(play, emit)
		}

	case artifact.KindTaskFile:
		if root.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: task file is not a list of tasks", ErrMalformed)
		}
		e.extractTasks(root, RefTaskInclude, emit)

	case artifact.KindHandlerFile:
		if root.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: handler file is not a list of handlers", ErrMalformed)
		}
		e.extractTasks(root, RefHandlerInclude, emit)

	case artifact.KindRoleMeta:
		if root.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: role meta is not a mapping", ErrMalformed)
		}
		e.extractMeta(root, emit)

	default:
		// Roles and vars files carry no references of their own
	}

	return refs, nil
}

// extractPlay emits references found in a single play mapping
func (e *Extractor) extractPlay(play *yaml.Node, emit func(RefKind, string)) {
	forEachPair(play, func(key string, value *yaml.Node) {
		switch {
		case playIncludeKeys[key]:
			if value.Kind == yaml.ScalarNode {
				emit(RefPlaybookInclude, value.Value)
			}
		case key == "roles":
			e.extractRoleList(value, emit)
		case key == "vars_files":
			e.extractScalarList(value, RefVarsFile, emit)
		case key == "tasks" || key == "pre_tasks" || key == "post_tasks":
			e.extractTasks(value, RefTaskInclude, emit)
		case key == "handlers":
			e.extractTasks(value, RefHandlerInclude, emit)
		}
	})
}

// extractTasks walks a task list, descending into block/rescue/always,
// emitting includes with the given kind and role inclusions as RoleRefs
func (e *Extractor) extractTasks(list *yaml.Node, includeKind RefKind, emit func(RefKind, string)) {
	if list == nil || list.Kind != yaml.SequenceNode {
		return
	}
	for _, task := range list.Content {
		if task.Kind != yaml.MappingNode {
			continue
		}
		forEachPair(task, func(key string, value *yaml.Node) {
			switch {
			case taskIncludeKeys[key]:
				if value.Kind == yaml.ScalarNode {
					emit(includeKind, value.Value)
				}
			case roleIncludeKeys[key]:
				if name, ok := roleName(value); ok {
					emit(RefRole, name)
				}
			case key == "vars_files":
				e.extractScalarList(value, RefVarsFile, emit)
			case blockKeys[key]:
				e.extractTasks(value, includeKind, emit)
			}
		})
	}
}

// extractMeta emits a RoleRef per entry of a role meta's dependencies list
func (e *Extractor) extractMeta(meta *yaml.Node, emit func(RefKind, string)) {
	forEachPair(meta, func(key string, value *yaml.Node) {
		if key != "dependencies" {
			return
		}
		e.extractRoleList(value, emit)
	})
}

// extractRoleList emits a RoleRef per list item. Items are either plain
// strings or mappings carrying a role (or name) key.
func (e *Extractor) extractRoleList(list *yaml.Node, emit func(RefKind, string)) {
	if list == nil || list.Kind != yaml.SequenceNode {
		return
	}
	for _, item := range list.Content {
		if name, ok := roleName(item); ok {
			emit(RefRole, name)
		}
	}
}

// extractScalarList emits one reference per scalar list item
func (e *Extractor) extractScalarList(list *yaml.Node, kind RefKind, emit func(RefKind, string)) {
	if list == nil || list.Kind != yaml.SequenceNode {
		return
	}
	for _, item := range list.Content {
		if item.Kind == yaml.ScalarNode {
			emit(kind, item.Value)
		}
	}
}

// cleanTarget normalizes a raw reference target. Targets carrying a
// template expression are skipped entirely: they depend on runtime state
// this tool does not model. Inline parameters after the filename
// ("include: setup.yml user=deploy") are stripped.
func (e *Extractor) cleanTarget(src artifact.Artifact, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "{{") {
		e.logger.Debug("skipping templated reference target",
			zap.String("source", src.Path),
			zap.String("target", raw))
		return "", false
	}
	return strings.Fields(raw)[0], true
}

// roleName extracts the role name from a roles-list or include_role
// value, which may be a plain string or a mapping with a role/name key
func roleName(node *yaml.Node) (string, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return "", false
		}
		return node.Value, true
	case yaml.MappingNode:
		var name string
		forEachPair(node, func(key string, value *yaml.Node) {
			if value.Kind != yaml.ScalarNode {
				return
			}
			// include_role uses name, roles list entries use role
			if key == "role" || (key == "name" && name == "") {
				name = value.Value
			}
		})
		return name, name != ""
	}
	return "", false
}

// forEachPair visits a mapping node's key/value pairs in document order
func forEachPair(mapping *yaml.Node, fn func(key string, value *yaml.Node)) {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		fn(key.Value, mapping.Content[i+1])
	}
}

// unwrapDocument descends through a document node to its root content
func unwrapDocument(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return doc.Content[0]
	}
	return doc
}
