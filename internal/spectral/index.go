// Package spectral provides the spectral evaluation machinery for the
// simulation loop: spectral indexes, spectral response functions, CKD bin
// grids and quadrature rules.
//
// All wavelengths are stored in nanometres (see internal/units).
package spectral

import (
	"fmt"
	"sort"
)

// Mode identifies the active spectral mode of an experiment.
type Mode int

const (
	// ModeMono evaluates the radiative transfer equation at individual
	// wavelengths.
	ModeMono Mode = iota
	// ModeCKD evaluates band averages using the correlated-k distribution
	// method with a fixed quadrature rule per spectral bin.
	ModeCKD
)

// ParseMode converts a mode identifier string ("mono" or "ckd") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "mono":
		return ModeMono, nil
	case "ckd":
		return ModeCKD, nil
	default:
		return 0, fmt.Errorf("unknown spectral mode %q (valid: mono, ckd)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeMono:
		return "mono"
	case ModeCKD:
		return "ckd"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Index identifies one spectral evaluation point. In mono mode it carries a
// single wavelength; in CKD mode it carries a bin centre wavelength and a
// quadrature point position g in [0, 1].
//
// Index is a comparable value type: it is used directly as a map key to
// associate raw render results with the loop iteration that produced them.
type Index struct {
	Mode Mode
	W    float64 // wavelength or bin centre, nm
	G    float64 // quadrature point position, CKD only
}

// MonoIndex returns a monochromatic spectral index at wavelength w (nm).
func MonoIndex(w float64) Index {
	return Index{Mode: ModeMono, W: w}
}

// CKDIndex returns a CKD spectral index for the bin centred at w (nm) and
// quadrature point g.
func CKDIndex(w, g float64) Index {
	return Index{Mode: ModeCKD, W: w, G: g}
}

// Less reports whether x sorts before y. Mono indexes order by wavelength;
// CKD indexes order by (bin centre, quadrature point).
func (x Index) Less(y Index) bool {
	if x.W != y.W {
		return x.W < y.W
	}
	return x.G < y.G
}

func (x Index) String() string {
	if x.Mode == ModeCKD {
		return fmt.Sprintf("%g nm:%.3f", x.W, x.G)
	}
	return fmt.Sprintf("%g nm", x.W)
}

// SortDedup sorts a sequence of spectral indexes by the canonical ordering
// key and collapses equal neighbours. The result is deterministic and
// independent of input order, so permuting the measures that contributed the
// indexes yields an identical loop schedule. The input slice is not modified.
func SortDedup(indexes []Index) []Index {
	sorted := make([]Index, len(indexes))
	copy(sorted, indexes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	result := sorted[:0]
	for i, si := range sorted {
		if i > 0 && si == result[len(result)-1] {
			continue
		}
		result = append(result, si)
	}
	return result
}
