package spectral

import (
	"fmt"
	"sort"
)

// SRF is a spectral response function: an instrument sensitivity weighting
// over wavelength. Implementations must be immutable after construction.
//
// Consumers that need variant-specific behaviour (bin selection, SRF
// weighting) type-switch on the concrete type; DeltaSRF in particular is a
// distribution rather than a function, so its Eval and Integrate are
// conventionally zero.
type SRF interface {
	// Support returns the wavelength interval (nm) outside which the
	// response is identically zero.
	Support() (wmin, wmax float64)
	// Eval returns the response at wavelength w (nm).
	Eval(w float64) float64
	// Integrate returns the integral of the response over [wmin, wmax].
	Integrate(wmin, wmax float64) float64
}

// DeltaSRF is a sum of Dirac deltas at a fixed set of wavelengths. It is
// used to restrict a CKD run to the bins containing specific wavelengths;
// SRF weighting reduces to selection for this variant.
type DeltaSRF struct {
	Wavelengths []float64 // nm, sorted ascending
}

// NewDeltaSRF returns a DeltaSRF over the given wavelengths (nm).
func NewDeltaSRF(wavelengths ...float64) *DeltaSRF {
	ws := make([]float64, len(wavelengths))
	copy(ws, wavelengths)
	sort.Float64s(ws)
	return &DeltaSRF{Wavelengths: ws}
}

func (s *DeltaSRF) Support() (float64, float64) {
	if len(s.Wavelengths) == 0 {
		return 0, 0
	}
	return s.Wavelengths[0], s.Wavelengths[len(s.Wavelengths)-1]
}

// Eval returns 0: a delta distribution has no pointwise value.
func (s *DeltaSRF) Eval(w float64) float64 { return 0 }

// Integrate returns 0: delta SRFs are handled by bin selection, not by
// numerical integration.
func (s *DeltaSRF) Integrate(wmin, wmax float64) float64 { return 0 }

// UniformSRF is a box response: constant value on [WMin, WMax], zero outside.
type UniformSRF struct {
	WMin, WMax float64 // nm
	Value      float64
}

// NewUniformSRF returns a UniformSRF with unit response on [wmin, wmax] nm.
func NewUniformSRF(wmin, wmax float64) *UniformSRF {
	return &UniformSRF{WMin: wmin, WMax: wmax, Value: 1}
}

func (s *UniformSRF) Support() (float64, float64) { return s.WMin, s.WMax }

func (s *UniformSRF) Eval(w float64) float64 {
	if w < s.WMin || w > s.WMax {
		return 0
	}
	return s.Value
}

func (s *UniformSRF) Integrate(wmin, wmax float64) float64 {
	lo := max(wmin, s.WMin)
	hi := min(wmax, s.WMax)
	if hi <= lo {
		return 0
	}
	return (hi - lo) * s.Value
}

// BandSRF is a tabulated response with linear interpolation between nodes
// and zero response outside the tabulated range.
type BandSRF struct {
	Wavelengths []float64 // nm, strictly increasing
	Values      []float64 // response at each wavelength, non-negative
}

// NewBandSRF returns a BandSRF from tabulated (wavelength, value) nodes.
// Wavelengths must be strictly increasing and the two slices must have the
// same length.
func NewBandSRF(wavelengths, values []float64) (*BandSRF, error) {
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("srf: wavelengths and values must have the same length, got %d and %d",
			len(wavelengths), len(values))
	}
	if len(wavelengths) < 2 {
		return nil, fmt.Errorf("srf: at least two nodes required, got %d", len(wavelengths))
	}
	for i := 1; i < len(wavelengths); i++ {
		if wavelengths[i] <= wavelengths[i-1] {
			return nil, fmt.Errorf("srf: wavelengths must be strictly increasing at index %d", i)
		}
	}
	ws := make([]float64, len(wavelengths))
	vs := make([]float64, len(values))
	copy(ws, wavelengths)
	copy(vs, values)
	return &BandSRF{Wavelengths: ws, Values: vs}, nil
}

func (s *BandSRF) Support() (float64, float64) {
	return s.Wavelengths[0], s.Wavelengths[len(s.Wavelengths)-1]
}

func (s *BandSRF) Eval(w float64) float64 {
	n := len(s.Wavelengths)
	if w < s.Wavelengths[0] || w > s.Wavelengths[n-1] {
		return 0
	}
	i := sort.SearchFloat64s(s.Wavelengths, w)
	if i < n && s.Wavelengths[i] == w {
		return s.Values[i]
	}
	// w falls strictly between nodes i-1 and i
	t := (w - s.Wavelengths[i-1]) / (s.Wavelengths[i] - s.Wavelengths[i-1])
	return s.Values[i-1] + t*(s.Values[i]-s.Values[i-1])
}

// Integrate returns the trapezoidal integral of the response over
// [wmin, wmax], clipped to the tabulated range.
func (s *BandSRF) Integrate(wmin, wmax float64) float64 {
	lo := max(wmin, s.Wavelengths[0])
	hi := min(wmax, s.Wavelengths[len(s.Wavelengths)-1])
	if hi <= lo {
		return 0
	}

	total := 0.0
	prevW := lo
	prevV := s.Eval(lo)
	for i, w := range s.Wavelengths {
		if w <= lo {
			continue
		}
		if w >= hi {
			break
		}
		total += 0.5 * (prevV + s.Values[i]) * (w - prevW)
		prevW, prevV = w, s.Values[i]
	}
	total += 0.5 * (prevV + s.Eval(hi)) * (hi - prevW)
	return total
}

// IntegrateCumulative returns the cumulative integral of the response
// evaluated at each of the given wavelengths. It is used for CKD bin
// selection: a bin holds response mass iff the cumulative integral differs
// across its bounds.
func (s *BandSRF) IntegrateCumulative(ws []float64) []float64 {
	result := make([]float64, len(ws))
	for i, w := range ws {
		result[i] = s.Integrate(s.Wavelengths[0], w)
	}
	return result
}
