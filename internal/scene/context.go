package scene

import (
	"github.com/banshee-data/radiance.report/internal/spectral"
)

// Context carries the state against which deferred parameters are
// evaluated: the active spectral index plus auxiliary side-channel kwargs
// (for example, cross-component overrides such as "this sensor sits inside
// medium X").
//
// Contexts are immutable. Derived contexts are produced by Evolve, a
// structural copy-with-override; the original is never changed.
type Context struct {
	si     spectral.Index
	kwargs map[string]any
}

// NewContext returns a Context for the given spectral index with no kwargs.
func NewContext(si spectral.Index) *Context {
	return &Context{si: si}
}

// NewContextWith returns a Context with the given spectral index and kwargs.
// The kwargs map is copied.
func NewContextWith(si spectral.Index, kwargs map[string]any) *Context {
	return &Context{si: si, kwargs: copyKwargs(kwargs, nil)}
}

// SpectralIndex returns the active spectral index.
func (c *Context) SpectralIndex() spectral.Index { return c.si }

// Kwarg returns the side-channel value stored under key.
func (c *Context) Kwarg(key string) (any, bool) {
	v, ok := c.kwargs[key]
	return v, ok
}

// Kwargs returns a copy of the side-channel map.
func (c *Context) Kwargs() map[string]any {
	return copyKwargs(c.kwargs, nil)
}

// Evolve returns a copy of the context with the given kwargs overriding or
// extending the existing ones. The receiver is unchanged.
func (c *Context) Evolve(overrides map[string]any) *Context {
	return &Context{si: c.si, kwargs: copyKwargs(c.kwargs, overrides)}
}

// EvolveIndex returns a copy of the context with a different spectral
// index. The receiver is unchanged.
func (c *Context) EvolveIndex(si spectral.Index) *Context {
	return &Context{si: si, kwargs: copyKwargs(c.kwargs, nil)}
}

func copyKwargs(base, overrides map[string]any) map[string]any {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
