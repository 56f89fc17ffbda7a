package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// Quad is a fixed quadrature rule over the g space [0, 1] used by the CKD
// method to approximate band averages. Weights sum to 1 by construction, so
// integrating a constant returns that constant.
type Quad struct {
	Type    string
	Nodes   []float64
	Weights []float64
}

// GaussLegendre returns an n-point Gauss-Legendre rule on [0, 1].
func GaussLegendre(n int) (*Quad, error) {
	if n < 1 {
		return nil, fmt.Errorf("quad: need at least one point, got %d", n)
	}
	nodes := make([]float64, n)
	weights := make([]float64, n)
	(quad.Legendre{}).FixedLocations(nodes, weights, 0, 1)

	// Gauss-Legendre weights on [0, 1] sum to 1 analytically; renormalize
	// anyway to absorb floating-point residue.
	total := floats.Sum(weights)
	floats.Scale(1/total, weights)

	return &Quad{Type: "gauss_legendre", Nodes: nodes, Weights: weights}, nil
}

// Integrate returns the weighted sum of per-node values, the quadrature
// estimate of the band average. The number of values must match the rule
// size.
func (q *Quad) Integrate(values []float64) (float64, error) {
	if len(values) != len(q.Nodes) {
		return 0, fmt.Errorf("quad: got %d values for a %d-point rule", len(values), len(q.Nodes))
	}
	return floats.Dot(q.Weights, values), nil
}

func (q *Quad) String() string {
	return fmt.Sprintf("%s, %d points", q.Type, len(q.Nodes))
}
