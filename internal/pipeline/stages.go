package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/radiance.report/internal/kernel"
	"github.com/banshee-data/radiance.report/internal/spectral"
	"github.com/banshee-data/radiance.report/internal/units"
)

// RawResultsVar is the store variable Gather reads the spectral-loop
// output from.
const RawResultsVar = "raw_results"

const centerTolerance = 1e-9

// Gather turns the raw (spectral index, sensor id) result map into a
// labeled array. Mono results come out as [w, y, x]; CKD results as
// [w, g, y, x] and must cover the full bin x quadrature-node grid.
// A per-wavelength sample-count array is emitted alongside.
func Gather(varName string, varAttrs map[string]string, sensorID string, mode spectral.Mode) Stage {
	rawName := varName + "_raw"
	return Stage{
		Name:    "gather_" + varName,
		Inputs:  []string{RawResultsVar},
		Outputs: []string{rawName, "spp"},
		Apply: func(in Store) (Store, error) {
			results, ok := in[RawResultsVar].(kernel.Results)
			if !ok {
				return nil, fmt.Errorf("%s is not kernel results", RawResultsVar)
			}
			if len(results) == 0 {
				return nil, fmt.Errorf("no results to gather")
			}

			type cell struct {
				img *kernel.Image
				spp int
			}
			byIndex := make(map[spectral.Index]cell, len(results))
			var width, height int
			wset := map[float64]bool{}
			gset := map[float64]bool{}
			for si, sensors := range results {
				res, ok := sensors[sensorID]
				if !ok {
					return nil, fmt.Errorf("sensor %q missing at %s", sensorID, si)
				}
				if si.Mode != mode {
					return nil, fmt.Errorf("result at %s does not match mode %s", si, mode)
				}
				if width == 0 {
					width, height = res.Image.Width, res.Image.Height
				} else if res.Image.Width != width || res.Image.Height != height {
					return nil, fmt.Errorf("film size varies across spectral indexes for sensor %q", sensorID)
				}
				byIndex[si] = cell{img: res.Image, spp: res.SPP}
				wset[si.W] = true
				gset[si.G] = true
			}

			ws := sortedKeys(wset)
			gs := sortedKeys(gset)

			var arr *DataArray
			var err error
			if mode == spectral.ModeCKD {
				if len(byIndex) != len(ws)*len(gs) {
					return nil, fmt.Errorf("sensor %q: incomplete bin x node grid (%d results for %d bins, %d nodes)",
						sensorID, len(byIndex), len(ws), len(gs))
				}
				arr, err = NewDataArray(rawName, []string{"w", "g", "y", "x"}, []int{len(ws), len(gs), height, width})
			} else {
				arr, err = NewDataArray(rawName, []string{"w", "y", "x"}, []int{len(ws), height, width})
			}
			if err != nil {
				return nil, err
			}
			arr.Attrs = copyAttrs(varAttrs)
			if err := arr.SetCoord("w", "w", ws, map[string]string{"units": units.SymbolWavelength}); err != nil {
				return nil, err
			}

			spp, err := NewDataArray("spp", []string{"w"}, []int{len(ws)})
			if err != nil {
				return nil, err
			}
			spp.Attrs["long_name"] = "sample count"
			if err := spp.SetCoord("w", "w", ws, map[string]string{"units": units.SymbolWavelength}); err != nil {
				return nil, err
			}

			if mode == spectral.ModeCKD {
				if err := arr.SetCoord("g", "g", gs, nil); err != nil {
					return nil, err
				}
			}

			for wi, w := range ws {
				if mode == spectral.ModeCKD {
					sum := 0.0
					for gi, g := range gs {
						c, ok := byIndex[spectral.CKDIndex(w, g)]
						if !ok {
							return nil, fmt.Errorf("sensor %q: missing result at bin %g nm, node %g", sensorID, w, g)
						}
						sum += float64(c.spp)
						for y := 0; y < height; y++ {
							for x := 0; x < width; x++ {
								arr.Set(c.img.At(x, y), wi, gi, y, x)
							}
						}
					}
					spp.Values[wi] = sum / float64(len(gs))
				} else {
					c := byIndex[spectral.MonoIndex(w)]
					spp.Values[wi] = float64(c.spp)
					for y := 0; y < height; y++ {
						for x := 0; x < width; x++ {
							arr.Set(c.img.At(x, y), wi, y, x)
						}
					}
				}
			}
			return Store{rawName: arr, "spp": spp}, nil
		},
	}
}

// AggregateCKDQuad collapses the quadrature-node dimension into the
// weighted quadrature sum and annotates each bin with its bounds. In mono
// mode it only strips the raw suffix.
func AggregateCKDQuad(varName string, grid *spectral.Grid, quad *spectral.Quad, mode spectral.Mode) Stage {
	rawName := varName + "_raw"
	return Stage{
		Name:    "aggregate_ckd_quad_" + varName,
		Inputs:  []string{rawName},
		Outputs: []string{varName},
		Apply: func(in Store) (Store, error) {
			raw, ok := in[rawName].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("%s is not a data array", rawName)
			}
			if mode != spectral.ModeCKD {
				return Store{varName: raw.Copy(varName)}, nil
			}
			out, err := raw.ReduceDim("g", quad.Weights)
			if err != nil {
				return nil, err
			}
			out.Name = varName
			wc, ok := out.Coords["w"]
			if !ok {
				return nil, fmt.Errorf("%s has no w coordinate", rawName)
			}
			wmins := make([]float64, len(wc.Values))
			wmaxs := make([]float64, len(wc.Values))
			for i, w := range wc.Values {
				bi := binByCenter(grid, w)
				if bi < 0 {
					return nil, fmt.Errorf("no spectral bin centered on %g nm", w)
				}
				wmins[i], wmaxs[i] = grid.Bounds(bi)
			}
			wattrs := map[string]string{"units": units.SymbolWavelength}
			if err := out.SetCoord("bin_wmin", "w", wmins, wattrs); err != nil {
				return nil, err
			}
			if err := out.SetCoord("bin_wmax", "w", wmaxs, wattrs); err != nil {
				return nil, err
			}
			return Store{varName: out}, nil
		},
	}
}

// AggregateRadiosity sums the per-sector flux film into a scalar radiosity
// per spectral coordinate.
func AggregateRadiosity() Stage {
	return Stage{
		Name:    "aggregate_radiosity",
		Inputs:  []string{"sector_radiosity"},
		Outputs: []string{"radiosity"},
		Apply: func(in Store) (Store, error) {
			sectors, ok := in["sector_radiosity"].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("sector_radiosity is not a data array")
			}
			out := sectors
			for _, dim := range []string{"y", "x"} {
				if !out.HasDim(dim) {
					continue
				}
				ones := make([]float64, out.Shape[out.DimIndex(dim)])
				for i := range ones {
					ones[i] = 1
				}
				var err error
				out, err = out.ReduceDim(dim, ones)
				if err != nil {
					return nil, err
				}
			}
			out.Name = "radiosity"
			out.Attrs["long_name"] = "radiosity"
			out.Attrs["units"] = units.SymbolRadiosity
			return Store{"radiosity": out}, nil
		},
	}
}

// AddIllumination evaluates the illuminant's spectral irradiance at the
// data variable's wavelengths and emits it as a coordinate-aligned array.
func AddIllumination(varName string, irradiance func(w float64) float64) Stage {
	return Stage{
		Name:    "add_illumination",
		Inputs:  []string{varName},
		Outputs: []string{"irradiance"},
		Apply: func(in Store) (Store, error) {
			arr, ok := in[varName].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("%s is not a data array", varName)
			}
			wc, ok := arr.Coords["w"]
			if !ok {
				return nil, fmt.Errorf("%s has no w coordinate", varName)
			}
			out, err := NewDataArray("irradiance", []string{"w"}, []int{len(wc.Values)})
			if err != nil {
				return nil, err
			}
			out.Attrs["long_name"] = "horizontal spectral irradiance"
			out.Attrs["units"] = units.SymbolIrradiance
			for _, name := range []string{"w", "bin_wmin", "bin_wmax"} {
				if c, ok := arr.Coords[name]; ok && c.Dim == "w" {
					if err := out.SetCoord(name, "w", c.Values, c.Attrs); err != nil {
						return nil, err
					}
				}
			}
			for i, w := range wc.Values {
				out.Values[i] = irradiance(w)
			}
			return Store{"irradiance": out}, nil
		},
	}
}

// AddViewingAngles emits the per-film-column viewing zenith and azimuth
// angles of a multi-directional sensor.
func AddViewingAngles(directions [][2]float64) Stage {
	return Stage{
		Name:    "add_viewing_angles",
		Inputs:  nil,
		Outputs: []string{"vza", "vaa"},
		Apply: func(in Store) (Store, error) {
			if len(directions) == 0 {
				return nil, fmt.Errorf("no viewing directions")
			}
			vza, err := NewDataArray("vza", []string{"x"}, []int{len(directions)})
			if err != nil {
				return nil, err
			}
			vaa, err := NewDataArray("vaa", []string{"x"}, []int{len(directions)})
			if err != nil {
				return nil, err
			}
			vza.Attrs["long_name"] = "viewing zenith angle"
			vza.Attrs["units"] = units.SymbolDegree
			vaa.Attrs["long_name"] = "viewing azimuth angle"
			vaa.Attrs["units"] = units.SymbolDegree
			for i, d := range directions {
				vza.Values[i] = d[0]
				vaa.Values[i] = d[1]
			}
			return Store{"vza": vza, "vaa": vaa}, nil
		},
	}
}

// AddSpectralResponse emits the measure's spectral response function as a
// tabulated array along its own wavelength dimension.
func AddSpectralResponse(srf spectral.SRF) Stage {
	return Stage{
		Name:    "add_spectral_response",
		Inputs:  nil,
		Outputs: []string{"srf"},
		Apply: func(in Store) (Store, error) {
			var ws, vs []float64
			switch s := srf.(type) {
			case *spectral.DeltaSRF:
				ws = s.Wavelengths
				vs = make([]float64, len(ws))
				for i := range vs {
					vs[i] = 1
				}
			case *spectral.UniformSRF:
				ws = []float64{s.WMin, s.WMax}
				vs = []float64{s.Value, s.Value}
			case *spectral.BandSRF:
				ws = s.Wavelengths
				vs = s.Values
			default:
				return nil, fmt.Errorf("unsupported spectral response %T", srf)
			}
			out, err := NewDataArray("srf", []string{"srf_w"}, []int{len(ws)})
			if err != nil {
				return nil, err
			}
			out.Attrs["long_name"] = "spectral response function"
			copy(out.Values, vs)
			if err := out.SetCoord("srf_w", "srf_w", ws, map[string]string{"units": units.SymbolWavelength}); err != nil {
				return nil, err
			}
			return Store{"srf": out}, nil
		},
	}
}

// ApplySpectralResponse collapses the wavelength dimension into the
// SRF-weighted average Σ m_i v_i / Σ m_i, where m_i is the response mass
// falling in bin i. A single-wavelength delta response degenerates to
// selecting that wavelength's value unchanged.
func ApplySpectralResponse(varName string, srf spectral.SRF) Stage {
	outName := varName + "_srf"
	return Stage{
		Name:    "apply_spectral_response_" + varName,
		Inputs:  []string{varName},
		Outputs: []string{outName},
		Apply: func(in Store) (Store, error) {
			arr, ok := in[varName].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("%s is not a data array", varName)
			}
			wc, ok := arr.Coords["w"]
			if !ok {
				return nil, fmt.Errorf("%s has no w coordinate", varName)
			}

			weights := make([]float64, len(wc.Values))
			if delta, ok := srf.(*spectral.DeltaSRF); ok {
				if len(delta.Wavelengths) != 1 {
					return nil, fmt.Errorf("cannot reduce %d delta wavelengths to a band value", len(delta.Wavelengths))
				}
				target := delta.Wavelengths[0]
				sel := -1
				lo, hi := arr.Coords["bin_wmin"], arr.Coords["bin_wmax"]
				if lo != nil && hi != nil {
					// Bounds are inclusive, matching grid bin selection; a
					// delta on a shared bound belongs to the lower bin.
					for i := range wc.Values {
						if lo.Values[i] <= target && target <= hi.Values[i] {
							sel = i
							break
						}
					}
				} else {
					// Mono samples: take the nearest wavelength.
					for i, w := range wc.Values {
						if sel < 0 || math.Abs(w-target) < math.Abs(wc.Values[sel]-target) {
							sel = i
						}
					}
				}
				if sel < 0 {
					return nil, fmt.Errorf("delta wavelength %g nm outside the spectral grid", target)
				}
				weights[sel] = 1
			} else {
				total := 0.0
				for i := range wc.Values {
					weights[i] = binMass(arr, srf, i)
					total += weights[i]
				}
				if total <= 0 {
					return nil, fmt.Errorf("spectral response has no mass over the %s grid", varName)
				}
				for i := range weights {
					weights[i] /= total
				}
			}

			out, err := arr.ReduceDim("w", weights)
			if err != nil {
				return nil, err
			}
			out.Name = outName
			return Store{outName: out}, nil
		},
	}
}

// ComputeReflectance derives the BRDF from radiance and irradiance, and
// the BRF as pi times the BRDF.
func ComputeReflectance() Stage {
	return Stage{
		Name:    "compute_reflectance",
		Inputs:  []string{"radiance", "irradiance"},
		Outputs: []string{"brdf", "brf"},
		Apply: func(in Store) (Store, error) {
			radiance, ok := in["radiance"].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("radiance is not a data array")
			}
			irradiance, ok := in["irradiance"].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("irradiance is not a data array")
			}
			brdf, err := DivBroadcast("brdf", radiance, irradiance)
			if err != nil {
				return nil, err
			}
			brdf.Attrs = map[string]string{
				"long_name": "bi-directional reflection distribution function",
				"units":     "1/sr",
			}
			brf := brdf.Copy("brf").Scale(math.Pi)
			brf.Attrs = map[string]string{
				"long_name": "bi-directional reflectance factor",
				"units":     units.SymbolDimensionless,
			}
			return Store{"brdf": brdf, "brf": brf}, nil
		},
	}
}

// ComputeAlbedo derives the surface albedo as radiosity over irradiance.
func ComputeAlbedo() Stage {
	return Stage{
		Name:    "compute_albedo",
		Inputs:  []string{"radiosity", "irradiance"},
		Outputs: []string{"albedo"},
		Apply: func(in Store) (Store, error) {
			radiosity, ok := in["radiosity"].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("radiosity is not a data array")
			}
			irradiance, ok := in["irradiance"].(*DataArray)
			if !ok {
				return nil, fmt.Errorf("irradiance is not a data array")
			}
			albedo, err := DivBroadcast("albedo", radiosity, irradiance)
			if err != nil {
				return nil, err
			}
			albedo.Attrs = map[string]string{
				"long_name": "surface albedo",
				"units":     units.SymbolDimensionless,
			}
			return Store{"albedo": albedo}, nil
		},
	}
}

// binMass returns the response mass attributed to wavelength position i.
// With bin bounds available it is the exact integral over the bin; in mono
// mode it falls back to the response value weighted by the local sample
// spacing.
func binMass(arr *DataArray, srf spectral.SRF, i int) float64 {
	lo, hi := arr.Coords["bin_wmin"], arr.Coords["bin_wmax"]
	if lo != nil && hi != nil {
		return srf.Integrate(lo.Values[i], hi.Values[i])
	}
	ws := arr.Coords["w"].Values
	spacing := 1.0
	switch {
	case len(ws) == 1:
	case i == 0:
		spacing = ws[1] - ws[0]
	case i == len(ws)-1:
		spacing = ws[i] - ws[i-1]
	default:
		spacing = (ws[i+1] - ws[i-1]) / 2
	}
	return srf.Eval(ws[i]) * spacing
}

func binByCenter(grid *spectral.Grid, w float64) int {
	for i := 0; i < grid.Len(); i++ {
		if math.Abs(grid.Center(i)-w) < centerTolerance {
			return i
		}
	}
	return -1
}

func sortedKeys(set map[float64]bool) []float64 {
	out := make([]float64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}
