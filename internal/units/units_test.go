package units

import (
	"math"
	"testing"
)

func TestIsValidWavelengthUnit(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"nanometres", "nm", true},
		{"micrometres", "um", true},
		{"millimetres", "mm", true},
		{"invalid", "angstrom", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IsValidWavelengthUnit(tt.unit)
			if res != tt.expected {
				t.Errorf("IsValidWavelengthUnit(%s) = %v, want %v", tt.unit, res, tt.expected)
			}
		})
	}
}

func TestConvertWavelength(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		units    string
		expected float64
	}{
		{"nm passthrough", 550, NM, 550},
		{"nm to um", 550, UM, 0.55},
		{"nm to mm", 550, MM, 0.00055},
		{"unknown unit defaults to nm", 550, "parsec", 550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ConvertWavelength(tt.input, tt.units)
			if math.Abs(res-tt.expected) > 1e-12 {
				t.Errorf("ConvertWavelength(%v, %s) = %v, want %v", tt.input, tt.units, res, tt.expected)
			}
		})
	}
}
