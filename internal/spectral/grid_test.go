package spectral

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustGridRange(t *testing.T, start, stop, width float64) *Grid {
	t.Helper()
	g, err := NewGridRange(start, stop, width)
	if err != nil {
		t.Fatalf("NewGridRange(%g, %g, %g): %v", start, stop, width, err)
	}
	return g
}

func TestNewGridRange(t *testing.T) {
	g := mustGridRange(t, 540, 560, 10)

	expected := []float64{540, 550, 560}
	if diff := cmp.Diff(expected, g.Centers()); diff != "" {
		t.Errorf("centers mismatch (-want +got):\n%s", diff)
	}

	wmin, wmax := g.Bounds(0)
	if wmin != 535 || wmax != 545 {
		t.Errorf("Bounds(0) = [%g, %g], want [535, 545]", wmin, wmax)
	}
}

func TestNewGridFromNodes(t *testing.T) {
	g, err := NewGridFromNodes([]float64{500, 510, 530})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if got := g.Center(1); got != 520 {
		t.Errorf("Center(1) = %g, want 520", got)
	}
}

func TestNewGridRejectsEmptyBins(t *testing.T) {
	if _, err := NewGrid([]float64{500}, []float64{500}); err == nil {
		t.Error("NewGrid should reject zero-width bins")
	}
	if _, err := NewGrid([]float64{500, 510}, []float64{505}); err == nil {
		t.Error("NewGrid should reject mismatched bound lengths")
	}
}

func TestGridSelectUniform(t *testing.T) {
	g := mustGridRange(t, 500, 600, 10)

	tests := []struct {
		name     string
		wmin     float64
		wmax     float64
		expected []float64
	}{
		{
			// Support [512, 538] only partially covers the 510 and 540
			// bins; both must stay selected.
			name:     "partial overlap keeps enclosing bins",
			wmin:     512,
			wmax:     538,
			expected: []float64{510, 520, 530, 540},
		},
		{
			name:     "exact bin bounds",
			wmin:     545,
			wmax:     555,
			expected: []float64{550},
		},
		{
			name:     "outside grid",
			wmin:     700,
			wmax:     750,
			expected: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := g.Select(NewUniformSRF(tt.wmin, tt.wmax))
			if diff := cmp.Diff(tt.expected, sub.Centers()); diff != "" {
				t.Errorf("selected centers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGridSelectDelta(t *testing.T) {
	g := mustGridRange(t, 500, 600, 10)

	sub := g.Select(NewDeltaSRF(550, 551, 583))
	if diff := cmp.Diff([]float64{550, 580}, sub.Centers()); diff != "" {
		t.Errorf("selected centers mismatch (-want +got):\n%s", diff)
	}

	// Wavelengths outside all bins select nothing.
	empty := g.Select(NewDeltaSRF(10))
	if empty.Len() != 0 {
		t.Errorf("expected empty selection, got %v", empty.Centers())
	}
}

func TestGridSelectBand(t *testing.T) {
	g := mustGridRange(t, 500, 600, 10)

	// Triangular response peaking at 550, support [530, 570].
	srf, err := NewBandSRF(
		[]float64{530, 550, 570},
		[]float64{0, 1, 0},
	)
	if err != nil {
		t.Fatal(err)
	}

	sub := g.Select(srf)
	if diff := cmp.Diff([]float64{530, 540, 550, 560, 570}, sub.Centers()); diff != "" {
		t.Errorf("selected centers mismatch (-want +got):\n%s", diff)
	}
}

func TestGridIndexes(t *testing.T) {
	g := mustGridRange(t, 540, 550, 10)
	q, err := GaussLegendre(2)
	if err != nil {
		t.Fatal(err)
	}

	indexes := g.Indexes(q)
	if len(indexes) != 4 {
		t.Fatalf("got %d indexes, want 4 (2 bins x 2 points)", len(indexes))
	}
	for _, si := range indexes {
		if si.Mode != ModeCKD {
			t.Errorf("index %v is not CKD", si)
		}
		if si.G <= 0 || si.G >= 1 {
			t.Errorf("quadrature point %g outside (0, 1)", si.G)
		}
	}
	if indexes[0].W != 540 || indexes[2].W != 550 {
		t.Errorf("bin-major order violated: %v", indexes)
	}
}

func TestGaussLegendreWeights(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16} {
		q, err := GaussLegendre(n)
		if err != nil {
			t.Fatal(err)
		}
		sum := 0.0
		for _, w := range q.Weights {
			sum += w
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("n=%d: weights sum to %v, want 1", n, sum)
		}
	}
}

func TestQuadIntegrateConstant(t *testing.T) {
	q, err := GaussLegendre(8)
	if err != nil {
		t.Fatal(err)
	}
	values := make([]float64, 8)
	for i := range values {
		values[i] = 42.5
	}
	got, err := q.Integrate(values)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-42.5) > 1e-12 {
		t.Errorf("Integrate(const 42.5) = %v", got)
	}
}

func TestQuadIntegrateSizeMismatch(t *testing.T) {
	q, err := GaussLegendre(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Integrate([]float64{1, 2}); err == nil {
		t.Error("Integrate should reject mismatched value count")
	}
}
