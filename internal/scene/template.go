package scene

import (
	"fmt"
	"sort"
	"strings"
)

// Template is the static description of a scene: an ordered flat mapping
// from dotted paths to either literal values or unresolved Parameter
// placeholders. It is built once per experiment configuration by composing
// per-component contributions, then rendered into a concrete nested
// dictionary for the kernel's loader.
type Template struct {
	paths []string
	slots map[string]any // literal value or *Parameter placeholder
}

// NewTemplate returns an empty Template.
func NewTemplate() *Template {
	return &Template{slots: make(map[string]any)}
}

// Len returns the number of slots.
func (t *Template) Len() int { return len(t.paths) }

// Paths returns the slot paths in insertion order.
func (t *Template) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Has reports whether a slot exists at path.
func (t *Template) Has(path string) bool {
	_, ok := t.slots[path]
	return ok
}

// Slot returns the raw slot content at path: a literal value or a
// *Parameter placeholder.
func (t *Template) Slot(path string) (any, bool) {
	v, ok := t.slots[path]
	return v, ok
}

// Set stores a literal value or *Parameter placeholder at path. Setting an
// existing path is a DuplicatePathError.
func (t *Template) Set(path string, v any) error {
	if path == "" {
		return fmt.Errorf("template: empty path")
	}
	if _, exists := t.slots[path]; exists {
		return &DuplicatePathError{Path: path}
	}
	t.paths = append(t.paths, path)
	t.slots[path] = v
	return nil
}

// Merge copies every slot of other into t under the given namespace prefix.
func (t *Template) Merge(prefix string, other *Template) error {
	for _, p := range other.paths {
		path := p
		if prefix != "" {
			path = prefix + "." + p
		}
		if err := t.Set(path, other.slots[p]); err != nil {
			return err
		}
	}
	return nil
}

// Render evaluates the template against a context and returns a concrete
// flat path-to-value map suitable for nesting and loading. Placeholder
// resolution follows the same flag semantics as ParameterMap.Render.
func (t *Template) Render(ctx *Context, flags UpdateFlags, drop bool) (map[string]any, error) {
	result := make(map[string]any, len(t.paths))
	var unresolved []string

	for _, path := range t.paths {
		switch v := t.slots[path].(type) {
		case *Parameter:
			if !v.Flags.Intersects(flags) {
				if !drop {
					unresolved = append(unresolved, path)
				}
				continue
			}
			value, err := v.Eval(ctx)
			if err != nil {
				return nil, fmt.Errorf("evaluating template slot %q: %w", path, err)
			}
			result[path] = value
		default:
			result[path] = v
		}
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedError{Paths: unresolved}
	}
	return result, nil
}

// RenderNested renders the template and expands the flat result into a
// nested map keyed by path segments.
func (t *Template) RenderNested(ctx *Context, flags UpdateFlags, drop bool) (map[string]any, error) {
	flat, err := t.Render(ctx, flags, drop)
	if err != nil {
		return nil, err
	}
	return Nest(flat), nil
}

// Nest expands a flat dotted-path map into a nested map. Intermediate
// segments become nested maps; a path that collides with an intermediate
// node overwrites it.
func Nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	// Deterministic expansion order
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		segments := strings.Split(p, ".")
		node := out
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = flat[p]
	}
	return out
}

// Flatten converts a nested map into a flat dotted-path map, the inverse of
// Nest for scalar leaves.
func Flatten(nested map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", nested)
	return out
}

func flattenInto(out map[string]any, prefix string, nested map[string]any) {
	for k, v := range nested {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenInto(out, path, child)
			continue
		}
		out[path] = v
	}
}

// CheckConsistency verifies that the template and parameter map describe
// the same path set: every parameter path must have a template slot, and
// every Parameter placeholder in the template must be declared in the
// parameter map. A violation is a DanglingPathError, raised at scene-build
// time rather than at render time.
func CheckConsistency(t *Template, m *ParameterMap) error {
	var templateOnly, paramsOnly []string

	for _, path := range t.paths {
		if _, isParam := t.slots[path].(*Parameter); isParam && !m.Has(path) {
			templateOnly = append(templateOnly, path)
		}
	}
	for _, path := range m.Paths() {
		if !t.Has(path) {
			paramsOnly = append(paramsOnly, path)
		}
	}

	if len(templateOnly) > 0 || len(paramsOnly) > 0 {
		return &DanglingPathError{TemplateOnly: templateOnly, ParamsOnly: paramsOnly}
	}
	return nil
}
