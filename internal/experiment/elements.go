// Package experiment is the composition root: it assembles scene elements
// and measures into a kernel scene, drives the spectral loop and runs the
// post-processing pipelines.
package experiment

import (
	"fmt"

	"github.com/banshee-data/radiance.report/internal/scene"
	"github.com/banshee-data/radiance.report/internal/spectral"
)

// LambertianSurface is a flat diffuse surface with a spectrally varying
// reflectance.
type LambertianSurface struct {
	Name        string
	Reflectance spectral.Spectrum
}

func (s *LambertianSurface) ID() string { return s.Name }

func (s *LambertianSurface) Template() map[string]any {
	return map[string]any{
		"type":             "rectangle",
		"bsdf.type":        "diffuse",
		"bsdf.reflectance": scene.SpectralParameter(s.evalReflectance),
	}
}

func (s *LambertianSurface) Params() *scene.ParameterMap {
	m := scene.NewParameterMap()
	// Build-time errors here would only stem from an empty path.
	_ = m.SetParameter("bsdf.reflectance", scene.SpectralParameter(s.evalReflectance))
	return m
}

func (s *LambertianSurface) evalReflectance(ctx *scene.Context) (any, error) {
	if s.Reflectance == nil {
		return nil, fmt.Errorf("surface %q has no reflectance spectrum", s.Name)
	}
	return s.Reflectance.Eval(ctx.SpectralIndex().W), nil
}

// DirectionalIllumination is a collimated illuminant with a spectrally
// varying horizontal irradiance. Angles are in degrees.
type DirectionalIllumination struct {
	Name       string
	Zenith     float64
	Azimuth    float64
	Irradiance spectral.Spectrum
}

func (d *DirectionalIllumination) ID() string { return d.Name }

func (d *DirectionalIllumination) Template() map[string]any {
	return map[string]any{
		"type":       "directional",
		"zenith":     d.Zenith,
		"azimuth":    d.Azimuth,
		"irradiance": scene.SpectralParameter(d.evalIrradiance),
	}
}

func (d *DirectionalIllumination) Params() *scene.ParameterMap {
	m := scene.NewParameterMap()
	_ = m.SetParameter("irradiance", scene.SpectralParameter(d.evalIrradiance))
	return m
}

func (d *DirectionalIllumination) evalIrradiance(ctx *scene.Context) (any, error) {
	if d.Irradiance == nil {
		return nil, fmt.Errorf("illumination %q has no irradiance spectrum", d.Name)
	}
	return d.Irradiance.Eval(ctx.SpectralIndex().W), nil
}

// EvalIrradiance returns the illuminant's horizontal spectral irradiance
// at a wavelength. Used by the post-processing pipelines.
func (d *DirectionalIllumination) EvalIrradiance(w float64) float64 {
	if d.Irradiance == nil {
		return 0
	}
	return d.Irradiance.Eval(w)
}

// HomogeneousAtmosphere is a plane-parallel participating medium filling
// the slab 0 <= z <= Top. Its medium child is what sensors embedded in
// the slab reference through the medium context kwarg.
type HomogeneousAtmosphere struct {
	Name string

	// Top is the slab height in scene length units.
	Top float64

	// SigmaT is the extinction coefficient spectrum.
	SigmaT spectral.Spectrum

	// Albedo is the single-scattering albedo spectrum.
	Albedo spectral.Spectrum
}

func (a *HomogeneousAtmosphere) ID() string { return a.Name }

func (a *HomogeneousAtmosphere) Template() map[string]any {
	return map[string]any{
		"type":           "cube",
		"top":            a.Top,
		"medium.type":    "homogeneous",
		"medium.sigma_t": scene.SpectralParameter(a.evalSigmaT),
		"medium.albedo":  scene.SpectralParameter(a.evalAlbedo),
	}
}

func (a *HomogeneousAtmosphere) Params() *scene.ParameterMap {
	m := scene.NewParameterMap()
	_ = m.SetParameter("medium.sigma_t", scene.SpectralParameter(a.evalSigmaT))
	_ = m.SetParameter("medium.albedo", scene.SpectralParameter(a.evalAlbedo))
	return m
}

func (a *HomogeneousAtmosphere) evalSigmaT(ctx *scene.Context) (any, error) {
	if a.SigmaT == nil {
		return 0.0, nil
	}
	return a.SigmaT.Eval(ctx.SpectralIndex().W), nil
}

func (a *HomogeneousAtmosphere) evalAlbedo(ctx *scene.Context) (any, error) {
	if a.Albedo == nil {
		return 1.0, nil
	}
	return a.Albedo.Eval(ctx.SpectralIndex().W), nil
}

// MediumID returns the composed identifier of the atmosphere's medium.
func (a *HomogeneousAtmosphere) MediumID() string { return a.Name + ".medium" }

// Contains reports whether a point sits inside the atmosphere slab.
func (a *HomogeneousAtmosphere) Contains(p [3]float64) bool {
	return p[2] >= 0 && p[2] <= a.Top
}
