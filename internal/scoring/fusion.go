package scoring

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/MishaK15/SmartSparse/internal/utils/logger"
)

// FusionWeights is the (α, β, γ) triple blending the three normalized
// importance metrics: quantization error, movement, and curvature.
type FusionWeights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// UniformFusion weighs the three metrics equally.
func UniformFusion() FusionWeights {
	return FusionWeights{Alpha: 1.0 / 3, Beta: 1.0 / 3, Gamma: 1.0 / 3}
}

// AdaptiveFusion returns the sentinel triple requesting entropy-derived
// weights, resolved on the first scored layer of a session.
func AdaptiveFusion() FusionWeights {
	return FusionWeights{Alpha: AdaptiveSentinel, Beta: AdaptiveSentinel, Gamma: AdaptiveSentinel}
}

// IsAdaptive reports whether the triple is the adaptive sentinel.
func (w FusionWeights) IsAdaptive() bool {
	return w.Alpha == AdaptiveSentinel && w.Beta == AdaptiveSentinel && w.Gamma == AdaptiveSentinel
}

// fusionPolicy owns the two-state lifecycle of the fusion triple: unresolved
// until the first layer is scored, then frozen for the rest of the session.
// Fixed triples are born resolved and never renormalized.
type fusionPolicy struct {
	weights  FusionWeights
	jitter   float64
	resolved bool
}

func newFusionPolicy(w FusionWeights, jitter float64) *fusionPolicy {
	if w.IsAdaptive() {
		return &fusionPolicy{jitter: jitter}
	}
	return &fusionPolicy{weights: w, resolved: true}
}

// resolve returns the fusion triple. In adaptive mode the first call derives
// it from the dispersion entropy of the three normalized metrics: each weight
// is the inverse entropy of its metric, jittered with gaussian noise, clamped
// to a floor, and renormalized to sum to one. Later calls in the same session
// return the frozen triple untouched.
func (p *fusionPolicy) resolve(quant, move, curv *mat.Dense, rng *rand.Rand) FusionWeights {
	if p.resolved {
		return p.weights
	}

	w := []float64{
		1 / DispersionEntropy(quant),
		1 / DispersionEntropy(move),
		1 / DispersionEntropy(curv),
	}
	for i := range w {
		w[i] += rng.NormFloat64() * p.jitter
		if w[i] < minFusionWeight {
			w[i] = minFusionWeight
		}
	}
	floats.Scale(1/floats.Sum(w), w)

	p.weights = FusionWeights{Alpha: w[0], Beta: w[1], Gamma: w[2]}
	p.resolved = true
	logger.Sugar().Infow("Resolved adaptive fusion weights", "fusionWeights", p.weights)
	return p.weights
}
