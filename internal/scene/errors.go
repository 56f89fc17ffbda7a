package scene

import (
	"fmt"
	"strings"
)

// UnresolvedError reports a strict render that found deferred parameters
// outside the requested flag set. It names every offending path.
type UnresolvedError struct {
	Paths []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved parameters: %s", strings.Join(e.Paths, ", "))
}

// DuplicatePathError reports a path collision during map construction or
// component composition.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate path %q", e.Path)
}

// DanglingPathError reports a template/parameter-map inconsistency detected
// at scene-build time: parameter paths without a matching template slot, or
// template placeholder slots without a matching parameter declaration.
type DanglingPathError struct {
	TemplateOnly []string // placeholder slots with no parameter declaration
	ParamsOnly   []string // parameter paths with no template slot
}

func (e *DanglingPathError) Error() string {
	var parts []string
	if len(e.ParamsOnly) > 0 {
		parts = append(parts, fmt.Sprintf("parameter paths without template slot: %s",
			strings.Join(e.ParamsOnly, ", ")))
	}
	if len(e.TemplateOnly) > 0 {
		parts = append(parts, fmt.Sprintf("template placeholders without parameter declaration: %s",
			strings.Join(e.TemplateOnly, ", ")))
	}
	return "dangling paths: " + strings.Join(parts, "; ")
}
