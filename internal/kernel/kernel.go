// Package kernel defines the boundary with the Monte Carlo rendering
// engine and the spectral-loop driver that feeds it.
//
// The engine is opaque to the rest of the system: it loads a rendered scene
// template into a live scene handle and produces one image tensor per
// (context, sensor) render call. The driver owns the live scene state for
// the duration of the loop and pushes re-evaluated spectral parameters into
// it before each iteration.
package kernel

import (
	"fmt"
	"sort"
)

// Known kernel variants. A scene handle built under one variant cannot be
// rendered under another; the driver checks this before the loop starts.
const (
	VariantScalarMono       = "scalar_mono"
	VariantScalarMonoDouble = "scalar_mono_double"
)

// Image is a single-channel film tensor produced by one render call.
type Image struct {
	Width  int
	Height int
	Data   []float64 // row-major, len = Width*Height
}

// NewImage returns a zero-filled image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Data: make([]float64, width*height)}
}

// NewUniformImage returns an image with every pixel set to v.
func NewUniformImage(width, height int, v float64) *Image {
	img := NewImage(width, height)
	for i := range img.Data {
		img.Data[i] = v
	}
	return img
}

// At returns the pixel value at (x, y).
func (img *Image) At(x, y int) float64 { return img.Data[y*img.Width+x] }

// Set assigns the pixel value at (x, y).
func (img *Image) Set(x, y int, v float64) { img.Data[y*img.Width+x] = v }

// Sensor describes one sensor of a loaded scene.
type Sensor struct {
	ID     string
	SPP    int // configured samples per pixel
	Width  int
	Height int
}

// Scene is a live scene handle produced by Renderer.Load. It is the single
// shared mutable resource of the spectral loop: only one context's
// parameter values may be active in it at a time, so it must not be
// rendered concurrently without cloning.
type Scene struct {
	variant string
	sensors []Sensor
	state   map[string]any // flat dotted-path live values
}

// Variant returns the kernel variant the scene was built under.
func (s *Scene) Variant() string { return s.variant }

// Sensors returns the scene's sensors in load order.
func (s *Scene) Sensors() []Sensor {
	out := make([]Sensor, len(s.sensors))
	copy(out, s.sensors)
	return out
}

// Update pushes concrete parameter values into the live scene state,
// overwriting previous values at the same paths.
func (s *Scene) Update(values map[string]any) {
	for k, v := range values {
		s.state[k] = v
	}
}

// Value returns the live value at a flat dotted path.
func (s *Scene) Value(path string) (any, bool) {
	v, ok := s.state[path]
	return v, ok
}

// Clone returns an independent copy of the scene handle, required for any
// parallel rendering extension: each worker needs its own live state.
func (s *Scene) Clone() *Scene {
	clone := &Scene{
		variant: s.variant,
		sensors: make([]Sensor, len(s.sensors)),
		state:   make(map[string]any, len(s.state)),
	}
	copy(clone.sensors, s.sensors)
	for k, v := range s.state {
		clone.state[k] = v
	}
	return clone
}

// Renderer is the opaque rendering engine boundary.
type Renderer interface {
	// Variant returns the engine's active variant identifier.
	Variant() string
	// Load instantiates a live scene handle from a concrete (rendered,
	// nested) scene template.
	Load(template map[string]any) (*Scene, error)
	// Render renders one sensor synchronously, blocking until the image
	// tensor is produced. spp = 0 means: use the sensor's configured value.
	Render(scn *Scene, sensor int, seed uint64, spp int) (*Image, error)
}

// sensorKinds lists template "type" values recognised as sensors.
var sensorKinds = map[string]bool{
	"radiancemeter": true,
	"mdistant":      true,
	"distantflux":   true,
}

// loadScene builds a Scene handle from a concrete nested template. Shared
// by the built-in renderer implementations: top-level objects whose "type"
// is a sensor kind become sensors, ordered by object key so that sensor
// indices are deterministic.
func loadScene(template map[string]any, variant string) (*Scene, error) {
	scn := &Scene{variant: variant, state: make(map[string]any)}

	keys := make([]string, 0, len(template))
	for k := range template {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		obj, ok := template[key].(map[string]any)
		if !ok {
			scn.state[key] = template[key]
			continue
		}
		flattenState(scn.state, key, obj)

		kind, _ := obj["type"].(string)
		if !sensorKinds[kind] {
			continue
		}
		sensor := Sensor{ID: key, SPP: intValue(obj["spp"]), Width: 1, Height: 1}
		if film, ok := obj["film"].(map[string]any); ok {
			if w := intValue(film["width"]); w > 0 {
				sensor.Width = w
			}
			if h := intValue(film["height"]); h > 0 {
				sensor.Height = h
			}
		}
		if sensor.SPP <= 0 {
			return nil, fmt.Errorf("kernel: sensor %q has no positive spp", key)
		}
		scn.sensors = append(scn.sensors, sensor)
	}

	if len(scn.sensors) == 0 {
		return nil, fmt.Errorf("kernel: scene template declares no sensors")
	}
	return scn, nil
}

func flattenState(out map[string]any, prefix string, obj map[string]any) {
	for k, v := range obj {
		path := prefix + "." + k
		if child, ok := v.(map[string]any); ok {
			flattenState(out, path, child)
			continue
		}
		out[path] = v
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// floatValue converts a live state entry to float64, returning false for
// non-numeric values.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
