package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DispersionEntropy measures how spread out a score tensor is. The tensor is
// rescaled to [0, 1], L1-normalized into a pseudo-distribution p, and reduced
// to -Σ p·log(p+ε). Concentrated scores give low entropy, diffuse scores give
// high entropy; adaptive fusion trusts the concentrated metrics more.
//
// Note this is a dispersion heuristic over raw values, not the entropy of an
// estimated density. A constant tensor collapses to zero.
func DispersionEntropy(s *mat.Dense) float64 {
	p := make([]float64, len(s.RawMatrix().Data))
	copy(p, s.RawMatrix().Data)

	min := floats.Min(p)
	max := floats.Max(p)
	floats.AddConst(-min, p)
	floats.Scale(1/(max-min+epsNorm), p)
	floats.Scale(1/(floats.Sum(p)+epsNorm), p)

	entropy := 0.0
	for _, v := range p {
		entropy -= v * math.Log(v+epsNorm)
	}
	return entropy
}
