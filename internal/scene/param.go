// Package scene implements the parametric scene template system: deferred
// parameters tagged with update classes, ordered parameter maps, flat
// dotted-path scene templates and the element traversal that composes them.
//
// The central idea is to separate a scene's static structure (built once)
// from the values that must be recomputed for every spectral iteration, so
// that a constructed scene can be re-rendered many times without being
// rebuilt.
package scene

import (
	"fmt"
	"strings"
)

// UpdateFlags is a bitset classifying when a deferred parameter value must
// be recomputed.
type UpdateFlags uint8

const (
	// FlagInit marks values evaluated once at scene construction and never
	// again.
	FlagInit UpdateFlags = 1 << iota
	// FlagGeometric marks values affecting structural or shape state,
	// evaluated on demand.
	FlagGeometric
	// FlagSpectral marks values that must be re-evaluated at every spectral
	// index change.
	FlagSpectral
)

// FlagAll passes every parameter filter.
const FlagAll = FlagInit | FlagGeometric | FlagSpectral

// FlagUpdate selects the parameters that may change after scene
// construction.
const FlagUpdate = FlagGeometric | FlagSpectral

// Intersects reports whether the two flag sets share at least one flag.
func (f UpdateFlags) Intersects(other UpdateFlags) bool { return f&other != 0 }

func (f UpdateFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f&FlagInit != 0 {
		parts = append(parts, "init")
	}
	if f&FlagGeometric != 0 {
		parts = append(parts, "geometric")
	}
	if f&FlagSpectral != 0 {
		parts = append(parts, "spectral")
	}
	return strings.Join(parts, "|")
}

// EvalFunc computes a concrete parameter value for an evaluation context.
type EvalFunc func(ctx *Context) (any, error)

// Parameter is a deferred scene value: a function from an evaluation
// context to a concrete value, tagged with the update class deciding when
// it must be recomputed. A Parameter never caches; the caller decides when
// to re-evaluate.
type Parameter struct {
	Eval  EvalFunc
	Flags UpdateFlags
}

// NewParameter returns a Parameter with the given evaluator and flags.
func NewParameter(eval EvalFunc, flags UpdateFlags) *Parameter {
	return &Parameter{Eval: eval, Flags: flags}
}

// SpectralParameter returns a Parameter re-evaluated at every spectral index
// change, the most common update class.
func SpectralParameter(eval EvalFunc) *Parameter {
	return &Parameter{Eval: eval, Flags: FlagSpectral}
}

// entry is one slot of a ParameterMap: either a literal value or a deferred
// Parameter. Exactly one of the two fields is set.
type entry struct {
	literal any
	param   *Parameter
}

// ParameterMap is an ordered mapping from dotted component paths to literal
// values or deferred Parameters. Paths are unique; insertion order is
// preserved so that repeated renders and merges are deterministic.
type ParameterMap struct {
	paths   []string
	entries map[string]entry
}

// NewParameterMap returns an empty ParameterMap.
func NewParameterMap() *ParameterMap {
	return &ParameterMap{entries: make(map[string]entry)}
}

// Len returns the number of declared paths.
func (m *ParameterMap) Len() int { return len(m.paths) }

// Paths returns the declared paths in insertion order.
func (m *ParameterMap) Paths() []string {
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Has reports whether the given path is declared.
func (m *ParameterMap) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

// Parameter returns the deferred Parameter declared at path, or nil if the
// path is absent or holds a literal.
func (m *ParameterMap) Parameter(path string) *Parameter {
	return m.entries[path].param
}

// Literal returns the literal value declared at path. The second return is
// false if the path is absent or holds a deferred Parameter.
func (m *ParameterMap) Literal(path string) (any, bool) {
	e, ok := m.entries[path]
	if !ok || e.param != nil {
		return nil, false
	}
	return e.literal, true
}

func (m *ParameterMap) put(path string, e entry) error {
	if path == "" {
		return fmt.Errorf("parameter map: empty path")
	}
	if _, exists := m.entries[path]; exists {
		return &DuplicatePathError{Path: path}
	}
	m.paths = append(m.paths, path)
	m.entries[path] = e
	return nil
}

// SetLiteral declares a literal value at path. Declaring an already-declared
// path is an error.
func (m *ParameterMap) SetLiteral(path string, value any) error {
	return m.put(path, entry{literal: value})
}

// SetParameter declares a deferred Parameter at path. Declaring an
// already-declared path is an error.
func (m *ParameterMap) SetParameter(path string, p *Parameter) error {
	if p == nil {
		return fmt.Errorf("parameter map: nil parameter at %q", path)
	}
	return m.put(path, entry{param: p})
}

// Merge copies every entry of other into m, prefixing paths with the given
// namespace (empty prefix merges verbatim). Path collisions abort the merge
// with a DuplicatePathError.
func (m *ParameterMap) Merge(prefix string, other *ParameterMap) error {
	for _, p := range other.paths {
		path := p
		if prefix != "" {
			path = prefix + "." + p
		}
		if err := m.put(path, other.entries[p]); err != nil {
			return err
		}
	}
	return nil
}

// Render evaluates the map against a context and returns a concrete
// path-to-value map.
//
// Literal entries always render. A deferred Parameter renders iff its flags
// intersect the requested set; otherwise it is dropped from the output when
// drop is true, or reported through an UnresolvedError naming every
// offending path when drop is false.
//
// Render is pure: it never mutates the map, and repeated renders with equal
// arguments return equal results.
func (m *ParameterMap) Render(ctx *Context, flags UpdateFlags, drop bool) (map[string]any, error) {
	result := make(map[string]any, len(m.paths))
	var unresolved []string

	for _, path := range m.paths {
		e := m.entries[path]
		if e.param == nil {
			result[path] = e.literal
			continue
		}
		if !e.param.Flags.Intersects(flags) {
			if !drop {
				unresolved = append(unresolved, path)
			}
			continue
		}
		v, err := e.param.Eval(ctx)
		if err != nil {
			return nil, fmt.Errorf("evaluating parameter %q: %w", path, err)
		}
		result[path] = v
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedError{Paths: unresolved}
	}
	return result, nil
}

// Keep returns a copy of the map containing only the paths matching at
// least one of the given glob-like patterns.
func (m *ParameterMap) Keep(patterns ...string) *ParameterMap {
	return m.filter(patterns, true)
}

// Remove returns a copy of the map without the paths matching any of the
// given glob-like patterns.
func (m *ParameterMap) Remove(patterns ...string) *ParameterMap {
	return m.filter(patterns, false)
}

func (m *ParameterMap) filter(patterns []string, keep bool) *ParameterMap {
	out := NewParameterMap()
	for _, path := range m.paths {
		matched := false
		for _, pattern := range patterns {
			if MatchPath(pattern, path) {
				matched = true
				break
			}
		}
		if matched == keep {
			// put cannot fail here: paths were unique in the source map
			_ = out.put(path, m.entries[path])
		}
	}
	return out
}
