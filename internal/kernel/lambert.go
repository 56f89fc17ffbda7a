package kernel

import (
	"fmt"
	"math"
	"strings"
)

// LambertRenderer is the built-in analytic engine: a zero-noise stand-in
// for a Monte Carlo kernel that evaluates the single-scattering solution
// for a Lambertian surface under directional illumination. It lets the full
// driver and pipeline stack run end to end without an external engine, and
// doubles as a physically exact reference in tests.
//
// It reads two conventional live-state entries: any path ending in
// ".reflectance" (the surface albedo) and any path ending in ".irradiance"
// (the incident spectral irradiance).
type LambertRenderer struct {
	variant string
}

// NewLambertRenderer returns a LambertRenderer running the given variant
// (empty means scalar_mono_double).
func NewLambertRenderer(variant string) *LambertRenderer {
	if variant == "" {
		variant = VariantScalarMonoDouble
	}
	return &LambertRenderer{variant: variant}
}

func (r *LambertRenderer) Variant() string { return r.variant }

// Load instantiates a scene handle from a concrete nested template.
func (r *LambertRenderer) Load(template map[string]any) (*Scene, error) {
	return loadScene(template, r.variant)
}

// Render evaluates the analytic solution for one sensor. Radiance sensors
// receive L = rho * E / pi per pixel; flux sensors receive the sector
// radiosity rho * E split uniformly over their film.
func (r *LambertRenderer) Render(scn *Scene, sensor int, seed uint64, spp int) (*Image, error) {
	if scn.Variant() != r.variant {
		return nil, &VariantError{SceneVariant: scn.Variant(), RendererVariant: r.variant}
	}
	if sensor < 0 || sensor >= len(scn.sensors) {
		return nil, fmt.Errorf("kernel: sensor index %d out of range", sensor)
	}
	s := scn.sensors[sensor]

	rho, ok := stateFloatBySuffix(scn.state, ".reflectance")
	if !ok {
		return nil, fmt.Errorf("kernel: no surface reflectance in live scene state")
	}
	irradiance, ok := stateFloatBySuffix(scn.state, ".irradiance")
	if !ok {
		return nil, fmt.Errorf("kernel: no illumination irradiance in live scene state")
	}

	kind, _ := scn.state[s.ID+".type"].(string)
	var value float64
	switch kind {
	case "distantflux":
		// Per-sector radiosity; sectors sum to the full exitant flux.
		value = rho * irradiance / float64(s.Width*s.Height)
	default:
		value = rho * irradiance / math.Pi
	}

	return NewUniformImage(s.Width, s.Height, value), nil
}

// stateFloatBySuffix returns the numeric live-state value at the
// lexicographically first path with the given suffix.
func stateFloatBySuffix(state map[string]any, suffix string) (float64, bool) {
	best := ""
	var result float64
	for path, v := range state {
		if !strings.HasSuffix(path, suffix) {
			continue
		}
		f, ok := floatValue(v)
		if !ok {
			continue
		}
		if best == "" || path < best {
			best = path
			result = f
		}
	}
	return result, best != ""
}
