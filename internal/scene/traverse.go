package scene

import (
	"fmt"
	"sort"
)

// Element is the scene-component contract. Every component contributes a
// template fragment and a parameter-map fragment, both with paths relative
// to the component, plus a stable identifier used as its namespace prefix.
//
// Fragments may be nested maps; leaves that are *Parameter values become
// placeholder slots. A deferred parameter must appear both in the template
// fragment (as its slot) and in the Params map (as its declaration);
// CheckConsistency enforces this after composition.
type Element interface {
	// ID returns the component's unique identifier.
	ID() string
	// Template returns the component's template fragment.
	Template() map[string]any
	// Params returns the component's parameter declarations, or nil.
	Params() *ParameterMap
}

// Composite is an Element made of child components (for example an
// atmosphere composed of a phase function, a medium and a shape). Children
// contribute under the composite's namespace, each further namespaced by
// its own identifier.
type Composite interface {
	Element
	Children() []Element
}

// Traverse composes scene elements into one flat Template and one
// ParameterMap. Every contributed path is prefixed by the owning
// component's identifier chain, which guarantees collision-free merging as
// long as identifiers are unique. The composed pair is checked for path
// consistency; a dangling parameter path is a construction-time error.
func Traverse(elements ...Element) (*Template, *ParameterMap, error) {
	tmpl := NewTemplate()
	pmap := NewParameterMap()

	for _, el := range elements {
		if err := traverseElement("", el, tmpl, pmap); err != nil {
			return nil, nil, err
		}
	}

	if err := CheckConsistency(tmpl, pmap); err != nil {
		return nil, nil, err
	}
	return tmpl, pmap, nil
}

func traverseElement(parent string, el Element, tmpl *Template, pmap *ParameterMap) error {
	if el.ID() == "" {
		return fmt.Errorf("scene element under %q has an empty id", parent)
	}
	prefix := el.ID()
	if parent != "" {
		prefix = parent + "." + el.ID()
	}

	flat := Flatten(el.Template())
	// Deterministic slot order regardless of fragment map iteration
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := tmpl.Set(prefix+"."+p, flat[p]); err != nil {
			return fmt.Errorf("composing %q: %w", prefix, err)
		}
	}

	if params := el.Params(); params != nil {
		if err := pmap.Merge(prefix, params); err != nil {
			return fmt.Errorf("composing %q: %w", prefix, err)
		}
	}

	if composite, ok := el.(Composite); ok {
		for _, child := range composite.Children() {
			if err := traverseElement(prefix, child, tmpl, pmap); err != nil {
				return err
			}
		}
	}
	return nil
}
