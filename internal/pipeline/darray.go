// Package pipeline implements the post-processing pipeline: labeled
// multi-dimensional arrays, named processing stages with declared
// input/output contracts, topological execution, and the stage catalog
// turning raw spectral-loop results into physically annotated datasets.
package pipeline

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Coord is a one-dimensional coordinate variable attached to a DataArray
// dimension. Several coords may share a dimension (for example bin centre,
// bin lower bound and bin upper bound all along "w").
type Coord struct {
	Dim    string
	Values []float64
	Attrs  map[string]string
}

// DataArray is a labeled multi-dimensional array: named dimensions, a
// row-major value buffer, per-dimension coordinates and free-form metadata
// attributes. It is the unit of exchange between pipeline stages.
type DataArray struct {
	Name   string
	Dims   []string
	Shape  []int
	Values []float64
	Coords map[string]*Coord
	Attrs  map[string]string
}

// NewDataArray returns a zero-filled array with the given dimensions.
func NewDataArray(name string, dims []string, shape []int) (*DataArray, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("darray %q: %d dims but %d shape entries", name, len(dims), len(shape))
	}
	size := 1
	for i, n := range shape {
		if n <= 0 {
			return nil, fmt.Errorf("darray %q: dimension %q has non-positive size %d", name, dims[i], n)
		}
		size *= n
	}
	return &DataArray{
		Name:   name,
		Dims:   slices.Clone(dims),
		Shape:  slices.Clone(shape),
		Values: make([]float64, size),
		Coords: make(map[string]*Coord),
		Attrs:  make(map[string]string),
	}, nil
}

// Size returns the total number of elements.
func (a *DataArray) Size() int { return len(a.Values) }

// DimIndex returns the axis position of the named dimension, or -1.
func (a *DataArray) DimIndex(dim string) int {
	return slices.Index(a.Dims, dim)
}

// HasDim reports whether the array has the named dimension.
func (a *DataArray) HasDim(dim string) bool { return a.DimIndex(dim) >= 0 }

// strides returns the row-major stride of each axis.
func (a *DataArray) strides() []int {
	strides := make([]int, len(a.Shape))
	acc := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= a.Shape[i]
	}
	return strides
}

// offset converts a multi-index to a flat buffer offset.
func (a *DataArray) offset(idx []int) int {
	strides := a.strides()
	off := 0
	for i, j := range idx {
		off += j * strides[i]
	}
	return off
}

// At returns the value at a multi-index.
func (a *DataArray) At(idx ...int) float64 { return a.Values[a.offset(idx)] }

// Set assigns the value at a multi-index.
func (a *DataArray) Set(v float64, idx ...int) { a.Values[a.offset(idx)] = v }

// SetCoord attaches a coordinate variable. The coord must match the size of
// its dimension.
func (a *DataArray) SetCoord(name, dim string, values []float64, attrs map[string]string) error {
	i := a.DimIndex(dim)
	if i < 0 {
		return fmt.Errorf("darray %q: no dimension %q for coord %q", a.Name, dim, name)
	}
	if len(values) != a.Shape[i] {
		return fmt.Errorf("darray %q: coord %q has %d values for dimension %q of size %d",
			a.Name, name, len(values), dim, a.Shape[i])
	}
	a.Coords[name] = &Coord{Dim: dim, Values: slices.Clone(values), Attrs: copyAttrs(attrs)}
	return nil
}

// Copy returns a deep copy, optionally renamed.
func (a *DataArray) Copy(name string) *DataArray {
	if name == "" {
		name = a.Name
	}
	out := &DataArray{
		Name:   name,
		Dims:   slices.Clone(a.Dims),
		Shape:  slices.Clone(a.Shape),
		Values: slices.Clone(a.Values),
		Coords: make(map[string]*Coord, len(a.Coords)),
		Attrs:  copyAttrs(a.Attrs),
	}
	for k, c := range a.Coords {
		out.Coords[k] = &Coord{Dim: c.Dim, Values: slices.Clone(c.Values), Attrs: copyAttrs(c.Attrs)}
	}
	return out
}

// ReduceDim collapses the named dimension into a weighted sum
// Σ_i w_i · v_i. Coordinates along the reduced dimension are dropped;
// everything else is preserved.
func (a *DataArray) ReduceDim(dim string, weights []float64) (*DataArray, error) {
	axis := a.DimIndex(dim)
	if axis < 0 {
		return nil, fmt.Errorf("darray %q: no dimension %q to reduce", a.Name, dim)
	}
	n := a.Shape[axis]
	if len(weights) != n {
		return nil, fmt.Errorf("darray %q: %d weights for dimension %q of size %d", a.Name, len(weights), dim, n)
	}

	outDims := slices.Delete(slices.Clone(a.Dims), axis, axis+1)
	outShape := slices.Delete(slices.Clone(a.Shape), axis, axis+1)
	out, err := NewDataArray(a.Name, outDims, outShape)
	if err != nil {
		return nil, err
	}
	out.Attrs = copyAttrs(a.Attrs)
	for k, c := range a.Coords {
		if c.Dim != dim {
			out.Coords[k] = &Coord{Dim: c.Dim, Values: slices.Clone(c.Values), Attrs: copyAttrs(c.Attrs)}
		}
	}

	strides := a.strides()
	outStrides := out.strides()
	idx := make([]int, len(outShape))
	for flat := range out.Values {
		// Recover the multi-index of the output element
		rem := flat
		for i := range outShape {
			idx[i] = rem / outStrides[i]
			rem %= outStrides[i]
		}
		// Base offset in the source array with the reduced axis at 0
		base := 0
		for i, j := range idx {
			src := i
			if i >= axis {
				src = i + 1
			}
			base += j * strides[src]
		}
		sum := 0.0
		for k := 0; k < n; k++ {
			sum += weights[k] * a.Values[base+k*strides[axis]]
		}
		out.Values[flat] = sum
	}
	return out, nil
}

// SelectIndex slices out position i along the named dimension, dropping
// that dimension from the result.
func (a *DataArray) SelectIndex(dim string, i int) (*DataArray, error) {
	axis := a.DimIndex(dim)
	if axis < 0 {
		return nil, fmt.Errorf("darray %q: no dimension %q to select from", a.Name, dim)
	}
	if i < 0 || i >= a.Shape[axis] {
		return nil, fmt.Errorf("darray %q: index %d out of range for dimension %q of size %d",
			a.Name, i, dim, a.Shape[axis])
	}
	weights := make([]float64, a.Shape[axis])
	weights[i] = 1
	return a.ReduceDim(dim, weights)
}

// DivBroadcast returns num / den elementwise, broadcasting den over the
// trailing dimensions it lacks. den's dimensions must be a leading subset
// of num's.
func DivBroadcast(name string, num, den *DataArray) (*DataArray, error) {
	if len(den.Dims) > len(num.Dims) {
		return nil, fmt.Errorf("darray: divisor %q has more dimensions than %q", den.Name, num.Name)
	}
	for i, d := range den.Dims {
		if num.Dims[i] != d || num.Shape[i] != den.Shape[i] {
			return nil, fmt.Errorf("darray: divisor %q dimension %q does not lead %q", den.Name, d, num.Name)
		}
	}

	out := num.Copy(name)
	block := 1
	for _, n := range num.Shape[len(den.Dims):] {
		block *= n
	}
	for i := range den.Values {
		d := den.Values[i]
		seg := out.Values[i*block : (i+1)*block]
		floats.Scale(1/d, seg)
	}
	return out, nil
}

// Scale multiplies every value by s in place and returns the receiver.
func (a *DataArray) Scale(s float64) *DataArray {
	floats.Scale(s, a.Values)
	return a
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
