package spectral

import (
	"fmt"
	"sort"
)

// Grid is a CKD spectral bin grid. Bins are contiguous or disjoint
// wavelength intervals; each bin carries its centre and bounds in nm.
// A Grid is immutable after construction; selection operations return new
// grids.
type Grid struct {
	wmins    []float64
	wmaxs    []float64
	wcenters []float64
}

// NewGrid builds a grid from matching bin lower and upper bounds (nm).
func NewGrid(wmins, wmaxs []float64) (*Grid, error) {
	if len(wmins) != len(wmaxs) {
		return nil, fmt.Errorf("grid: wmins and wmaxs must have the same length, got %d and %d",
			len(wmins), len(wmaxs))
	}
	g := &Grid{
		wmins:    make([]float64, len(wmins)),
		wmaxs:    make([]float64, len(wmaxs)),
		wcenters: make([]float64, len(wmins)),
	}
	copy(g.wmins, wmins)
	copy(g.wmaxs, wmaxs)
	for i := range g.wmins {
		if g.wmaxs[i] <= g.wmins[i] {
			return nil, fmt.Errorf("grid: bin %d has non-positive width [%g, %g]", i, g.wmins[i], g.wmaxs[i])
		}
		g.wcenters[i] = 0.5 * (g.wmins[i] + g.wmaxs[i])
	}
	return g, nil
}

// NewGridRange builds a regular grid of bins of the given width (nm) whose
// centres run from start to stop inclusive. This mirrors how absorption
// database metadata describes its banded layout: a bin width plus a covered
// range.
func NewGridRange(start, stop, width float64) (*Grid, error) {
	if width <= 0 {
		return nil, fmt.Errorf("grid: width must be positive, got %g", width)
	}
	var wmins, wmaxs []float64
	for w := start; w <= stop+0.1*width; w += width {
		wmins = append(wmins, w-0.5*width)
		wmaxs = append(wmaxs, w+0.5*width)
	}
	return NewGrid(wmins, wmaxs)
}

// NewGridFromNodes builds a grid whose bins are the intervals between
// consecutive nodes (nm).
func NewGridFromNodes(nodes []float64) (*Grid, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("grid: at least two nodes required, got %d", len(nodes))
	}
	return NewGrid(nodes[:len(nodes)-1], nodes[1:])
}

// Len returns the number of bins.
func (g *Grid) Len() int { return len(g.wcenters) }

// Centers returns a copy of the bin centre wavelengths (nm).
func (g *Grid) Centers() []float64 {
	out := make([]float64, len(g.wcenters))
	copy(out, g.wcenters)
	return out
}

// Bounds returns the lower and upper bound of bin i (nm).
func (g *Grid) Bounds(i int) (wmin, wmax float64) { return g.wmins[i], g.wmaxs[i] }

// Center returns the centre wavelength of bin i (nm).
func (g *Grid) Center(i int) float64 { return g.wcenters[i] }

func (g *Grid) subset(selected []int) *Grid {
	sub := &Grid{
		wmins:    make([]float64, 0, len(selected)),
		wmaxs:    make([]float64, 0, len(selected)),
		wcenters: make([]float64, 0, len(selected)),
	}
	for _, i := range selected {
		sub.wmins = append(sub.wmins, g.wmins[i])
		sub.wmaxs = append(sub.wmaxs, g.wmaxs[i])
		sub.wcenters = append(sub.wcenters, g.wcenters[i])
	}
	return sub
}

// Select returns the sub-grid of bins carrying spectral response mass for
// the given SRF. Bins that only partially overlap the SRF support are
// included, so band edges are never truncated.
func (g *Grid) Select(srf SRF) *Grid {
	switch s := srf.(type) {
	case *DeltaSRF:
		return g.selectDelta(s)
	case *UniformSRF:
		return g.selectInterval(s.WMin, s.WMax)
	case *BandSRF:
		return g.selectBand(s)
	default:
		wmin, wmax := srf.Support()
		return g.selectInterval(wmin, wmax)
	}
}

// selectDelta keeps the bins containing each delta wavelength.
func (g *Grid) selectDelta(srf *DeltaSRF) *Grid {
	var selected []int
	seen := make(map[int]bool)
	for _, w := range srf.Wavelengths {
		i := sort.SearchFloat64s(g.wmaxs, w)
		if i >= len(g.wmins) || w < g.wmins[i] {
			continue
		}
		if !seen[i] {
			seen[i] = true
			selected = append(selected, i)
		}
	}
	sort.Ints(selected)
	return g.subset(selected)
}

// selectInterval keeps every bin overlapping [wmin, wmax].
func (g *Grid) selectInterval(wmin, wmax float64) *Grid {
	var selected []int
	for i := range g.wcenters {
		if g.wmaxs[i] > wmin && g.wmins[i] < wmax {
			selected = append(selected, i)
		}
	}
	return g.subset(selected)
}

// selectBand keeps the bins on which the SRF accumulates nonzero integral.
func (g *Grid) selectBand(srf *BandSRF) *Grid {
	var selected []int
	for i := range g.wcenters {
		if srf.Integrate(g.wmins[i], g.wmaxs[i]) > 0 {
			selected = append(selected, i)
		}
	}
	return g.subset(selected)
}

// Indexes expands the grid into one CKD spectral index per (bin, quadrature
// point) pair, in bin-major order.
func (g *Grid) Indexes(quad *Quad) []Index {
	out := make([]Index, 0, len(g.wcenters)*len(quad.Nodes))
	for _, w := range g.wcenters {
		for _, gpt := range quad.Nodes {
			out = append(out, CKDIndex(w, gpt))
		}
	}
	return out
}
