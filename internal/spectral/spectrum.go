package spectral

import "fmt"

// Spectrum is a wavelength-dependent scalar quantity, such as a surface
// reflectance or an illuminant irradiance. Wavelengths are in nm.
type Spectrum interface {
	Eval(w float64) float64
}

// UniformSpectrum is a wavelength-independent value.
type UniformSpectrum float64

func (s UniformSpectrum) Eval(w float64) float64 { return float64(s) }

// InterpolatedSpectrum interpolates linearly between tabulated nodes and
// clamps to the edge values outside the tabulated range.
type InterpolatedSpectrum struct {
	Wavelengths []float64 // nm, strictly increasing
	Values      []float64
}

// NewInterpolatedSpectrum validates the node tables and returns the
// spectrum. Wavelengths must be strictly increasing and match the value
// count.
func NewInterpolatedSpectrum(wavelengths, values []float64) (*InterpolatedSpectrum, error) {
	if len(wavelengths) == 0 {
		return nil, fmt.Errorf("spectral: interpolated spectrum needs at least one node")
	}
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("spectral: %d wavelengths for %d values", len(wavelengths), len(values))
	}
	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("spectral: wavelengths must be strictly increasing at position %d", i)
		}
	}
	return &InterpolatedSpectrum{Wavelengths: wavelengths, Values: values}, nil
}

func (s *InterpolatedSpectrum) Eval(w float64) float64 {
	n := len(s.Wavelengths)
	if w <= s.Wavelengths[0] {
		return s.Values[0]
	}
	if w >= s.Wavelengths[n-1] {
		return s.Values[n-1]
	}
	for i := 1; i < n; i++ {
		if w <= s.Wavelengths[i] {
			t := (w - s.Wavelengths[i-1]) / (s.Wavelengths[i] - s.Wavelengths[i-1])
			return s.Values[i-1] + t*(s.Values[i]-s.Values[i-1])
		}
	}
	return s.Values[n-1]
}
