package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// QuantizationError returns the elementwise squared error a symmetric affine
// quantizer of the given bit width would introduce on w. The quantization grid
// spans [min(w), max(w)]. A collapsed range quantizes exactly, so the error is
// a zero tensor rather than a failure.
func QuantizationError(w *mat.Dense, bits int) *mat.Dense {
	out := zerosLike(w)

	data := w.RawMatrix().Data
	qmin := floats.Min(data)
	qmax := floats.Max(data)
	scale := (qmax - qmin) / (math.Exp2(float64(bits)) - 1)
	if scale < minQuantScale {
		return out
	}

	od := out.RawMatrix().Data
	for i, v := range data {
		q := math.Round((v-qmin)/scale)*scale + qmin
		od[i] = (v - q) * (v - q)
	}
	return out
}

// Movement returns the elementwise magnitude of the gradient g. Weights the
// loss is pushing hard on are weights that still matter.
func Movement(g *mat.Dense) *mat.Dense {
	out := zerosLike(g)
	od := out.RawMatrix().Data
	for i, v := range g.RawMatrix().Data {
		od[i] = math.Abs(v)
	}
	return out
}

// Curvature returns the saliency proxy w² / (2·h) where h is the squared
// gradient, a diagonal stand-in for the Hessian. The denominator is clamped
// away from zero so flat directions yield large but finite scores.
func Curvature(w, g *mat.Dense) *mat.Dense {
	out := zerosLike(w)
	od := out.RawMatrix().Data
	wd := w.RawMatrix().Data
	gd := g.RawMatrix().Data
	for i, v := range wd {
		h := gd[i] * gd[i]
		if h < minCurvatureDen {
			h = minCurvatureDen
		}
		od[i] = v * v / (2 * h)
	}
	return out
}

// Normalize z-scores a tensor over all its elements so metrics with wildly
// different magnitudes become comparable before fusion. The standard
// deviation is the sample estimator.
func Normalize(s *mat.Dense) *mat.Dense {
	data := s.RawMatrix().Data
	mean := stat.Mean(data, nil)
	denom := stat.StdDev(data, nil) + epsNorm

	out := zerosLike(s)
	od := out.RawMatrix().Data
	for i, v := range data {
		od[i] = (v - mean) / denom
	}
	return out
}

func zerosLike(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}
