package scoring

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFusionWeights_IsAdaptive(t *testing.T) {
	if !AdaptiveFusion().IsAdaptive() {
		t.Fatalf("sentinel triple must report adaptive")
	}
	if UniformFusion().IsAdaptive() {
		t.Fatalf("uniform triple must not report adaptive")
	}
	if (FusionWeights{Alpha: -1, Beta: 0.5, Gamma: 0.5}).IsAdaptive() {
		t.Fatalf("partial sentinel must not report adaptive")
	}
}

func TestFusionPolicy_FixedIsBornResolved(t *testing.T) {
	p := newFusionPolicy(FusionWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}, DefaultJitterSigma)

	if !p.resolved {
		t.Fatalf("fixed policy must start resolved")
	}

	// resolve must hand back the triple untouched, without renormalizing.
	got := p.resolve(nil, nil, nil, nil)
	if got != (FusionWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}) {
		t.Fatalf("fixed triple changed: %+v", got)
	}
}

func TestFusionPolicy_AdaptiveResolvesOnceAndSumsToOne(t *testing.T) {
	quant := Normalize(mat.NewDense(2, 2, []float64{0.01, 0.5, 0.02, 0.9}))
	move := Normalize(mat.NewDense(2, 2, []float64{1.5, 0.1, 0.3, 0.8}))
	curv := Normalize(mat.NewDense(2, 2, []float64{4, 0.2, 7, 1}))

	p := newFusionPolicy(AdaptiveFusion(), DefaultJitterSigma)
	rng := rand.New(rand.NewPCG(7, 7))

	first := p.resolve(quant, move, curv, rng)
	if !p.resolved {
		t.Fatalf("policy must be resolved after first layer")
	}
	sum := first.Alpha + first.Beta + first.Gamma
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("adaptive triple must sum to 1, got %v (%+v)", sum, first)
	}
	if first.Alpha <= 0 || first.Beta <= 0 || first.Gamma <= 0 {
		t.Fatalf("adaptive weights must stay positive: %+v", first)
	}

	// A second layer with different metrics must reuse the frozen triple.
	other := Normalize(mat.NewDense(1, 3, []float64{9, -2, 0.5}))
	second := p.resolve(other, other, other, rng)
	if second != first {
		t.Fatalf("triple changed after freeze: first %+v second %+v", first, second)
	}
}

func TestFusionPolicy_SameSeedSameTriple(t *testing.T) {
	quant := Normalize(mat.NewDense(2, 2, []float64{0.01, 0.5, 0.02, 0.9}))
	move := Normalize(mat.NewDense(2, 2, []float64{1.5, 0.1, 0.3, 0.8}))
	curv := Normalize(mat.NewDense(2, 2, []float64{4, 0.2, 7, 1}))

	a := newFusionPolicy(AdaptiveFusion(), DefaultJitterSigma)
	b := newFusionPolicy(AdaptiveFusion(), DefaultJitterSigma)

	wa := a.resolve(quant, move, curv, rand.New(rand.NewPCG(42, 42)))
	wb := b.resolve(quant, move, curv, rand.New(rand.NewPCG(42, 42)))

	if wa != wb {
		t.Fatalf("same seed must resolve the same triple: %+v vs %+v", wa, wb)
	}
}
