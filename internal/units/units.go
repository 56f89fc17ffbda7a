// Package units provides shared constants and conversion helpers for
// wavelength and radiometric units
package units

// Wavelength unit constants
const (
	NM = "nm"
	UM = "um"
	MM = "mm"
)

// ValidWavelengthUnits contains all valid wavelength unit values
var ValidWavelengthUnits = []string{NM, UM, MM}

// IsValidWavelengthUnit checks if the given unit is in the list of valid units
func IsValidWavelengthUnit(unit string) bool {
	for _, validUnit := range ValidWavelengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidWavelengthUnitsString returns a comma-separated string of valid
// units for error messages
func GetValidWavelengthUnitsString() string {
	return "nm, um, mm"
}

// ConvertWavelength converts a wavelength from nanometres to the target units.
// All internal storage uses nm.
func ConvertWavelength(wavelengthNM float64, targetUnits string) float64 {
	switch targetUnits {
	case UM:
		return wavelengthNM * 1e-3
	case MM:
		return wavelengthNM * 1e-6
	case NM:
		return wavelengthNM // no conversion needed
	default:
		return wavelengthNM // default to nm if unknown unit
	}
}

// Radiometric unit symbols. All spectral quantities are stored per-nanometre.
const (
	SymbolWavelength    = "nm"
	SymbolRadiance      = "W/m^2/sr/nm"
	SymbolIrradiance    = "W/m^2/nm"
	SymbolRadiosity     = "W/m^2/nm"
	SymbolDimensionless = ""
	SymbolDegree        = "deg"
)
