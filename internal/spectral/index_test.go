package spectral

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortDedup(t *testing.T) {
	tests := []struct {
		name     string
		input    []Index
		expected []Index
	}{
		{
			name:     "empty",
			input:    nil,
			expected: []Index{},
		},
		{
			name:     "mono sorted by wavelength",
			input:    []Index{MonoIndex(560), MonoIndex(550), MonoIndex(555)},
			expected: []Index{MonoIndex(550), MonoIndex(555), MonoIndex(560)},
		},
		{
			name:     "adjacent duplicates collapse",
			input:    []Index{MonoIndex(550), MonoIndex(560), MonoIndex(550), MonoIndex(550)},
			expected: []Index{MonoIndex(550), MonoIndex(560)},
		},
		{
			name: "ckd sorts by bin then quadrature point",
			input: []Index{
				CKDIndex(560, 0.2), CKDIndex(550, 0.8), CKDIndex(550, 0.2), CKDIndex(560, 0.2),
			},
			expected: []Index{
				CKDIndex(550, 0.2), CKDIndex(550, 0.8), CKDIndex(560, 0.2),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortDedup(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("SortDedup mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortDedupIdempotent(t *testing.T) {
	input := []Index{MonoIndex(550), MonoIndex(560), MonoIndex(550), MonoIndex(545)}
	once := SortDedup(input)
	twice := SortDedup(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("SortDedup is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestSortDedupOrderIndependent(t *testing.T) {
	a := []Index{CKDIndex(550, 0.1), CKDIndex(550, 0.9), MonoIndex(560)}
	b := []Index{MonoIndex(560), CKDIndex(550, 0.9), CKDIndex(550, 0.1)}
	if diff := cmp.Diff(SortDedup(a), SortDedup(b)); diff != "" {
		t.Errorf("SortDedup depends on input order (-a +b):\n%s", diff)
	}
}

func TestSortDedupDoesNotMutateInput(t *testing.T) {
	input := []Index{MonoIndex(560), MonoIndex(550)}
	SortDedup(input)
	if input[0] != MonoIndex(560) || input[1] != MonoIndex(550) {
		t.Errorf("SortDedup mutated its input: %v", input)
	}
}

func TestIndexString(t *testing.T) {
	if got := MonoIndex(550).String(); got != "550 nm" {
		t.Errorf("MonoIndex(550).String() = %q", got)
	}
	if got := CKDIndex(550, 0.5).String(); got != "550 nm:0.500" {
		t.Errorf("CKDIndex(550, 0.5).String() = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("mono"); err != nil || m != ModeMono {
		t.Errorf("ParseMode(mono) = %v, %v", m, err)
	}
	if m, err := ParseMode("ckd"); err != nil || m != ModeCKD {
		t.Errorf("ParseMode(ckd) = %v, %v", m, err)
	}
	if _, err := ParseMode("polychromatic"); err == nil {
		t.Error("ParseMode should reject unknown modes")
	}
}
