// Package measure defines the observation side of an experiment: scene
// elements that contribute sensors to the kernel scene and describe how
// their raw films are post-processed.
package measure

import (
	"fmt"

	"github.com/banshee-data/radiance.report/internal/pipeline"
	"github.com/banshee-data/radiance.report/internal/scene"
	"github.com/banshee-data/radiance.report/internal/spectral"
	"github.com/banshee-data/radiance.report/internal/units"
)

// Measure is a sensor-bearing scene element. Its element identifier doubles
// as the kernel sensor id, which is how raw films find their way back to
// the right post-processing pipeline.
type Measure interface {
	scene.Element

	// SRF returns the measure's spectral response function. It drives both
	// spectral grid selection and band integration.
	SRF() spectral.SRF

	// PipelineSpec returns the post-processing description for this
	// measure. The experiment fills in the spectral mode, the selected
	// grid and quadrature, and the illuminant spectrum before assembly.
	PipelineSpec() pipeline.MeasureSpec

	// Medium returns the identifier of the participating medium the sensor
	// sits inside, or "" when it is placed in vacuum.
	Medium() string
}

// SpectralIndexes returns the spectral loop contexts a measure needs: the
// grid restricted to the measure's response, expanded per mode.
func SpectralIndexes(m Measure, mode spectral.Mode, grid *spectral.Grid, quad *spectral.Quad) ([]spectral.Index, error) {
	selected := grid.Select(m.SRF())
	if selected.Len() == 0 {
		return nil, fmt.Errorf("measure %q: response selects no spectral bins", m.ID())
	}
	if mode == spectral.ModeCKD {
		if quad == nil {
			return nil, fmt.Errorf("measure %q: CKD mode needs a quadrature rule", m.ID())
		}
		return selected.Indexes(quad), nil
	}
	// A line response is sampled at its exact wavelengths; the grid only
	// vouches that each line falls inside a known bin.
	if delta, ok := m.SRF().(*spectral.DeltaSRF); ok {
		out := make([]spectral.Index, len(delta.Wavelengths))
		for i, w := range delta.Wavelengths {
			out[i] = spectral.MonoIndex(w)
		}
		return out, nil
	}
	centers := selected.Centers()
	out := make([]spectral.Index, len(centers))
	for i, w := range centers {
		out[i] = spectral.MonoIndex(w)
	}
	return out, nil
}

// Selected returns the grid restricted to the measure's response.
func Selected(m Measure, grid *spectral.Grid) *spectral.Grid {
	return grid.Select(m.SRF())
}

// RadianceMeter records radiance along a single ray from Origin towards
// Target, producing a 1x1 film.
type RadianceMeter struct {
	Name     string
	Origin   [3]float64
	Target   [3]float64
	Samples  int
	Response spectral.SRF

	// InMedium names the participating medium the sensor is embedded in.
	// Empty means vacuum.
	InMedium string
}

func (m *RadianceMeter) ID() string { return m.Name }

func (m *RadianceMeter) Template() map[string]any {
	return map[string]any{
		"type":        "radiancemeter",
		"spp":         m.Samples,
		"origin":      m.Origin,
		"target":      m.Target,
		"film.width":  1,
		"film.height": 1,
	}
}

func (m *RadianceMeter) Params() *scene.ParameterMap { return nil }

func (m *RadianceMeter) SRF() spectral.SRF { return m.Response }

func (m *RadianceMeter) Medium() string { return m.InMedium }

func (m *RadianceMeter) PipelineSpec() pipeline.MeasureSpec {
	return pipeline.MeasureSpec{
		VarName: "radiance",
		VarAttrs: map[string]string{
			"long_name": "radiance",
			"units":     units.SymbolRadiance,
		},
		SensorID:    m.Name,
		SRF:         m.Response,
		Reflectance: true,
	}
}

// MultiDistant records radiance from a set of distant viewing directions,
// one film column per direction.
type MultiDistant struct {
	Name     string
	Samples  int
	Response spectral.SRF

	// Directions lists (vza, vaa) pairs in degrees.
	Directions [][2]float64

	// Target is the scene point all directions converge on.
	Target [3]float64
}

func (m *MultiDistant) ID() string { return m.Name }

func (m *MultiDistant) Template() map[string]any {
	dirs := make([]any, len(m.Directions))
	for i, d := range m.Directions {
		dirs[i] = []float64{d[0], d[1]}
	}
	return map[string]any{
		"type":        "mdistant",
		"spp":         m.Samples,
		"directions":  dirs,
		"target":      m.Target,
		"film.width":  len(m.Directions),
		"film.height": 1,
	}
}

func (m *MultiDistant) Params() *scene.ParameterMap { return nil }

func (m *MultiDistant) SRF() spectral.SRF { return m.Response }

func (m *MultiDistant) Medium() string { return "" }

func (m *MultiDistant) PipelineSpec() pipeline.MeasureSpec {
	return pipeline.MeasureSpec{
		VarName: "radiance",
		VarAttrs: map[string]string{
			"long_name": "radiance",
			"units":     units.SymbolRadiance,
		},
		SensorID:    m.Name,
		SRF:         m.Response,
		Directions:  m.Directions,
		Reflectance: true,
	}
}

// DistantFlux records the exitant flux leaving the scene, split over a
// hemisphere sector film. Summing the film yields the radiosity.
type DistantFlux struct {
	Name     string
	Samples  int
	Response spectral.SRF

	// FilmRes is the per-side sector film resolution. Zero means 32.
	FilmRes int
}

func (m *DistantFlux) ID() string { return m.Name }

func (m *DistantFlux) filmRes() int {
	if m.FilmRes > 0 {
		return m.FilmRes
	}
	return 32
}

func (m *DistantFlux) Template() map[string]any {
	return map[string]any{
		"type":        "distantflux",
		"spp":         m.Samples,
		"film.width":  m.filmRes(),
		"film.height": m.filmRes(),
	}
}

func (m *DistantFlux) Params() *scene.ParameterMap { return nil }

func (m *DistantFlux) SRF() spectral.SRF { return m.Response }

func (m *DistantFlux) Medium() string { return "" }

func (m *DistantFlux) PipelineSpec() pipeline.MeasureSpec {
	return pipeline.MeasureSpec{
		VarName: "sector_radiosity",
		VarAttrs: map[string]string{
			"long_name": "sector radiosity",
			"units":     units.SymbolRadiosity,
		},
		SensorID: m.Name,
		SRF:      m.Response,
		Albedo:   true,
	}
}
