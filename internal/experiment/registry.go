package experiment

import (
	"fmt"
	"sort"

	"github.com/banshee-data/radiance.report/internal/measure"
	"github.com/banshee-data/radiance.report/internal/spectral"
)

// Constructor tables mapping config kinds to builders. Kept as explicit
// package-level tables so the supported vocabulary is visible in one place.

var measureBuilders = map[string]func(MeasureConfig) (measure.Measure, error){
	"radiancemeter": buildRadianceMeter,
	"mdistant":      buildMultiDistant,
	"distantflux":   buildDistantFlux,
}

var srfBuilders = map[string]func(SRFConfig) (spectral.SRF, error){
	"delta":   buildDeltaSRF,
	"uniform": buildUniformSRF,
	"band":    buildBandSRF,
}

// MeasureKinds returns the recognised measure kinds in sorted order.
func MeasureKinds() []string {
	kinds := make([]string, 0, len(measureBuilders))
	for k := range measureBuilders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// BuildMeasure materialises a measure from its config entry.
func BuildMeasure(cfg MeasureConfig) (measure.Measure, error) {
	build, ok := measureBuilders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown measure kind %q (supported: %v)", cfg.Type, MeasureKinds())
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("measure of kind %q has no id", cfg.Type)
	}
	if cfg.SPP <= 0 {
		return nil, fmt.Errorf("measure %q: spp must be positive", cfg.ID)
	}
	return build(cfg)
}

// BuildSRF materialises a spectral response function from its config.
func BuildSRF(cfg SRFConfig) (spectral.SRF, error) {
	build, ok := srfBuilders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown srf kind %q", cfg.Type)
	}
	return build(cfg)
}

func buildRadianceMeter(cfg MeasureConfig) (measure.Measure, error) {
	srf, err := BuildSRF(cfg.SRF)
	if err != nil {
		return nil, fmt.Errorf("measure %q: %w", cfg.ID, err)
	}
	return &measure.RadianceMeter{
		Name:     cfg.ID,
		Origin:   cfg.Origin,
		Target:   cfg.Target,
		Samples:  cfg.SPP,
		Response: srf,
		InMedium: cfg.Medium,
	}, nil
}

func buildMultiDistant(cfg MeasureConfig) (measure.Measure, error) {
	if len(cfg.Directions) == 0 {
		return nil, fmt.Errorf("measure %q: mdistant needs at least one direction", cfg.ID)
	}
	srf, err := BuildSRF(cfg.SRF)
	if err != nil {
		return nil, fmt.Errorf("measure %q: %w", cfg.ID, err)
	}
	return &measure.MultiDistant{
		Name:       cfg.ID,
		Samples:    cfg.SPP,
		Response:   srf,
		Directions: cfg.Directions,
		Target:     cfg.Target,
	}, nil
}

func buildDistantFlux(cfg MeasureConfig) (measure.Measure, error) {
	srf, err := BuildSRF(cfg.SRF)
	if err != nil {
		return nil, fmt.Errorf("measure %q: %w", cfg.ID, err)
	}
	return &measure.DistantFlux{
		Name:     cfg.ID,
		Samples:  cfg.SPP,
		Response: srf,
		FilmRes:  cfg.FilmRes,
	}, nil
}

func buildDeltaSRF(cfg SRFConfig) (spectral.SRF, error) {
	if len(cfg.Wavelengths) == 0 {
		return nil, fmt.Errorf("delta srf needs wavelengths")
	}
	return spectral.NewDeltaSRF(cfg.Wavelengths...), nil
}

func buildUniformSRF(cfg SRFConfig) (spectral.SRF, error) {
	if cfg.WMax <= cfg.WMin {
		return nil, fmt.Errorf("uniform srf needs wmin < wmax")
	}
	return spectral.NewUniformSRF(cfg.WMin, cfg.WMax), nil
}

func buildBandSRF(cfg SRFConfig) (spectral.SRF, error) {
	return spectral.NewBandSRF(cfg.Wavelengths, cfg.Values)
}

func buildSurface(cfg SurfaceConfig) (*LambertianSurface, error) {
	if cfg.Type != "" && cfg.Type != "lambertian" {
		return nil, fmt.Errorf("unknown surface kind %q", cfg.Type)
	}
	spectrum, err := cfg.Reflectance.Spectrum()
	if err != nil {
		return nil, fmt.Errorf("surface reflectance: %w", err)
	}
	return &LambertianSurface{Name: "surface", Reflectance: spectrum}, nil
}

func buildIllumination(cfg IlluminationConfig) (*DirectionalIllumination, error) {
	if cfg.Type != "" && cfg.Type != "directional" {
		return nil, fmt.Errorf("unknown illumination kind %q", cfg.Type)
	}
	spectrum, err := cfg.Irradiance.Spectrum()
	if err != nil {
		return nil, fmt.Errorf("illumination irradiance: %w", err)
	}
	return &DirectionalIllumination{
		Name:       "illumination",
		Zenith:     cfg.Zenith,
		Azimuth:    cfg.Azimuth,
		Irradiance: spectrum,
	}, nil
}

func buildAtmosphere(cfg AtmosphereConfig) (*HomogeneousAtmosphere, error) {
	if cfg.Type != "" && cfg.Type != "homogeneous" {
		return nil, fmt.Errorf("unknown atmosphere kind %q", cfg.Type)
	}
	if cfg.Top <= 0 {
		return nil, fmt.Errorf("atmosphere top must be positive")
	}
	sigmaT, err := cfg.SigmaT.Spectrum()
	if err != nil {
		return nil, fmt.Errorf("atmosphere sigma_t: %w", err)
	}
	albedo, err := cfg.Albedo.Spectrum()
	if err != nil {
		return nil, fmt.Errorf("atmosphere albedo: %w", err)
	}
	return &HomogeneousAtmosphere{Name: "atmosphere", Top: cfg.Top, SigmaT: sigmaT, Albedo: albedo}, nil
}
