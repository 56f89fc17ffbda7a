package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/radiance.report/internal/kernel"
	"github.com/banshee-data/radiance.report/internal/spectral"
)

// Config is the YAML description of an experiment.
type Config struct {
	// Title labels the run in dataset metadata and the results store.
	Title string `yaml:"title"`

	// Mode selects the spectral mode, "mono" or "ckd".
	Mode string `yaml:"mode"`

	// Seed is the root seed of the run. Zero is a valid seed.
	Seed uint64 `yaml:"seed"`

	Spectral     SpectralConfig     `yaml:"spectral"`
	Surface      SurfaceConfig      `yaml:"surface"`
	Illumination IlluminationConfig `yaml:"illumination"`
	Atmosphere   *AtmosphereConfig  `yaml:"atmosphere"`
	Measures     []MeasureConfig    `yaml:"measures"`
}

// SpectralConfig describes the spectral grid and, in CKD mode, the
// quadrature rule.
type SpectralConfig struct {
	Grid struct {
		// Start and Stop bound the grid in nm; Width is the bin width.
		Start float64 `yaml:"start"`
		Stop  float64 `yaml:"stop"`
		Width float64 `yaml:"width"`
	} `yaml:"grid"`

	Quadrature struct {
		// Type names the rule; only "gauss_legendre" is recognised.
		Type string `yaml:"type"`
		N    int    `yaml:"n"`
	} `yaml:"quadrature"`
}

// SurfaceConfig describes the surface element.
type SurfaceConfig struct {
	Type        string         `yaml:"type"`
	Reflectance SpectrumConfig `yaml:"reflectance"`
}

// IlluminationConfig describes the illuminant.
type IlluminationConfig struct {
	Type       string         `yaml:"type"`
	Zenith     float64        `yaml:"zenith"`
	Azimuth    float64        `yaml:"azimuth"`
	Irradiance SpectrumConfig `yaml:"irradiance"`
}

// AtmosphereConfig describes the optional participating medium slab.
type AtmosphereConfig struct {
	Type   string         `yaml:"type"`
	Top    float64        `yaml:"top"`
	SigmaT SpectrumConfig `yaml:"sigma_t"`
	Albedo SpectrumConfig `yaml:"albedo"`
}

// MeasureConfig describes one measure. Fields beyond Type, ID and SPP are
// interpreted per measure kind.
type MeasureConfig struct {
	Type       string       `yaml:"type"`
	ID         string       `yaml:"id"`
	SPP        int          `yaml:"spp"`
	Origin     [3]float64   `yaml:"origin"`
	Target     [3]float64   `yaml:"target"`
	Directions [][2]float64 `yaml:"directions"`
	FilmRes    int          `yaml:"film_res"`
	Medium     string       `yaml:"medium"`
	SRF        SRFConfig    `yaml:"srf"`
}

// SRFConfig describes a spectral response function.
type SRFConfig struct {
	Type        string    `yaml:"type"`
	Wavelengths []float64 `yaml:"wavelengths"`
	Values      []float64 `yaml:"values"`
	WMin        float64   `yaml:"wmin"`
	WMax        float64   `yaml:"wmax"`
}

// SpectrumConfig accepts either a bare scalar or a wavelength/value table.
type SpectrumConfig struct {
	scalar      *float64
	Wavelengths []float64 `yaml:"wavelengths"`
	Values      []float64 `yaml:"values"`
}

func (c *SpectrumConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		c.scalar = &v
		return nil
	}
	type plain SpectrumConfig
	return node.Decode((*plain)(c))
}

// Spectrum materialises the configured spectrum.
func (c *SpectrumConfig) Spectrum() (spectral.Spectrum, error) {
	if c.scalar != nil {
		return spectral.UniformSpectrum(*c.scalar), nil
	}
	if len(c.Wavelengths) == 0 {
		return nil, fmt.Errorf("spectrum: neither a scalar nor a node table")
	}
	return spectral.NewInterpolatedSpectrum(c.Wavelengths, c.Values)
}

// LoadConfig reads and decodes an experiment config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Build materialises the experiment described by the config, rendering
// with the given kernel.
func (c *Config) Build(renderer kernel.Renderer) (*Experiment, error) {
	mode, err := spectral.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	grid, err := spectral.NewGridRange(c.Spectral.Grid.Start, c.Spectral.Grid.Stop, c.Spectral.Grid.Width)
	if err != nil {
		return nil, fmt.Errorf("spectral grid: %w", err)
	}
	var quad *spectral.Quad
	if mode == spectral.ModeCKD {
		if c.Spectral.Quadrature.Type != "" && c.Spectral.Quadrature.Type != "gauss_legendre" {
			return nil, fmt.Errorf("unknown quadrature rule %q", c.Spectral.Quadrature.Type)
		}
		n := c.Spectral.Quadrature.N
		if n == 0 {
			n = 8
		}
		quad, err = spectral.GaussLegendre(n)
		if err != nil {
			return nil, fmt.Errorf("quadrature: %w", err)
		}
	}

	surface, err := buildSurface(c.Surface)
	if err != nil {
		return nil, err
	}
	illumination, err := buildIllumination(c.Illumination)
	if err != nil {
		return nil, err
	}
	var atmosphere *HomogeneousAtmosphere
	if c.Atmosphere != nil {
		atmosphere, err = buildAtmosphere(*c.Atmosphere)
		if err != nil {
			return nil, err
		}
	}

	exp := &Experiment{
		Title:        c.Title,
		Mode:         mode,
		Grid:         grid,
		Quad:         quad,
		Surface:      surface,
		Illumination: illumination,
		Atmosphere:   atmosphere,
		Renderer:     renderer,
		Seed:         c.Seed,
	}
	for i, mc := range c.Measures {
		m, err := BuildMeasure(mc)
		if err != nil {
			return nil, fmt.Errorf("measure %d: %w", i, err)
		}
		exp.Measures = append(exp.Measures, m)
	}
	return exp, nil
}
