package pipeline

import (
	"fmt"

	"github.com/banshee-data/radiance.report/internal/spectral"
)

// MeasureSpec describes one measure to the pipeline assembler: which raw
// variable its sensor produces, which derived quantities apply, and the
// spectral configuration the stages need.
type MeasureSpec struct {
	// VarName is the physical variable the sensor records, for example
	// "radiance" or "sector_radiosity".
	VarName  string
	VarAttrs map[string]string

	// SensorID selects this measure's films in the raw result map.
	SensorID string

	Mode spectral.Mode
	Grid *spectral.Grid // CKD only
	Quad *spectral.Quad // CKD only
	SRF  spectral.SRF

	// Irradiance evaluates the illuminant's horizontal spectral irradiance
	// at a wavelength. Nil disables irradiance-derived quantities.
	Irradiance func(w float64) float64

	// Directions lists (vza, vaa) pairs in degrees for multi-directional
	// measures, one per film column. Nil skips viewing-angle annotation.
	Directions [][2]float64

	// Reflectance derives brdf and brf from radiance, Albedo derives
	// albedo from radiosity. Both require Irradiance.
	Reflectance bool
	Albedo      bool
}

// Assemble builds the post-processing pipeline for one measure. The
// returned pipeline expects the raw result map in the RawResultsVar
// variable of its initial store.
func Assemble(spec MeasureSpec) (*Pipeline, error) {
	if spec.VarName == "" {
		return nil, fmt.Errorf("pipeline: measure has no variable name")
	}
	if spec.SensorID == "" {
		return nil, fmt.Errorf("pipeline: measure has no sensor id")
	}
	if spec.Mode == spectral.ModeCKD && (spec.Grid == nil || spec.Quad == nil) {
		return nil, fmt.Errorf("pipeline: CKD measures need a spectral grid and a quadrature rule")
	}
	if (spec.Reflectance || spec.Albedo) && spec.Irradiance == nil {
		return nil, fmt.Errorf("pipeline: reflectance and albedo need an illuminant irradiance spectrum")
	}

	stages := []Stage{
		Gather(spec.VarName, spec.VarAttrs, spec.SensorID, spec.Mode),
		AggregateCKDQuad(spec.VarName, spec.Grid, spec.Quad, spec.Mode),
	}
	finals := []string{spec.VarName, "spp"}

	if spec.Albedo {
		stages = append(stages, AggregateRadiosity())
	}
	if spec.Irradiance != nil {
		illumVar := spec.VarName
		if spec.Albedo {
			illumVar = "radiosity"
		}
		stages = append(stages, AddIllumination(illumVar, spec.Irradiance))
		finals = append(finals, "irradiance")
	}
	if spec.Directions != nil {
		stages = append(stages, AddViewingAngles(spec.Directions))
		finals = append(finals, "vza", "vaa")
	}
	if spec.SRF != nil {
		stages = append(stages, AddSpectralResponse(spec.SRF))
		finals = append(finals, "srf")
	}
	if spec.Reflectance {
		stages = append(stages, ComputeReflectance())
		finals = append(finals, "brdf", "brf")
	}
	if spec.Albedo {
		stages = append(stages, ComputeAlbedo())
		finals = append(finals, "radiosity", "albedo")
	}

	// Band-integrated companions of the spectral quantities. A delta SRF
	// covering several wavelengths cannot be reduced, so it keeps only the
	// per-wavelength variables.
	if spec.SRF != nil && reducible(spec.SRF) {
		for _, name := range srfTargets(spec) {
			stages = append(stages, ApplySpectralResponse(name, spec.SRF))
			finals = append(finals, name+"_srf")
		}
	}

	return New(stages, finals)
}

func srfTargets(spec MeasureSpec) []string {
	var targets []string
	if spec.Albedo {
		targets = append(targets, "radiosity")
	} else {
		targets = append(targets, spec.VarName)
	}
	if spec.Irradiance != nil {
		targets = append(targets, "irradiance")
	}
	if spec.Reflectance {
		targets = append(targets, "brdf", "brf")
	}
	if spec.Albedo {
		targets = append(targets, "albedo")
	}
	return targets
}

func reducible(srf spectral.SRF) bool {
	if delta, ok := srf.(*spectral.DeltaSRF); ok {
		return len(delta.Wavelengths) == 1
	}
	return true
}
