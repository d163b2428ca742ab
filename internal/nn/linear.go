package nn

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is a dense layer y = Wx + b with the weight stored [out, in].
// Weight gradients accumulate across Backward calls until zeroGrad.
type Linear struct {
	name string
	in   int
	out  int

	weight   *mat.Dense
	bias     []float64
	grad     *mat.Dense // nil until the first backward pass
	biasGrad []float64
}

// NewLinear builds a He-initialized layer: weights drawn from
// N(0, 2/in), biases zero.
func NewLinear(name string, in, out int, rng *rand.Rand) *Linear {
	stddev := math.Sqrt(2.0 / float64(in))
	data := make([]float64, out*in)
	for i := range data {
		data[i] = rng.NormFloat64() * stddev
	}
	return &Linear{
		name:     name,
		in:       in,
		out:      out,
		weight:   mat.NewDense(out, in, data),
		bias:     make([]float64, out),
		biasGrad: make([]float64, out),
	}
}

// Name returns the layer name, e.g. "hidden.0" or "lm_head".
func (l *Linear) Name() string { return l.name }

// Weight returns the live weight tensor. Pruning zeroes entries in place.
func (l *Linear) Weight() *mat.Dense { return l.weight }

// Grad returns the accumulated weight gradient, nil before any backward pass.
func (l *Linear) Grad() *mat.Dense { return l.grad }

// In returns the input width.
func (l *Linear) In() int { return l.in }

// Out returns the output width.
func (l *Linear) Out() int { return l.out }

// Forward computes Wx + b for a single sample.
func (l *Linear) Forward(x []float64) []float64 {
	w := l.weight.RawMatrix()
	y := make([]float64, l.out)
	for o := 0; o < l.out; o++ {
		y[o] = floats.Dot(w.Data[o*w.Stride:o*w.Stride+l.in], x) + l.bias[o]
	}
	return y
}

// Backward accumulates the weight and bias gradients for one sample given the
// layer input x and the loss gradient at the output, and returns the loss
// gradient at the input.
func (l *Linear) Backward(x, gradOut []float64) []float64 {
	if l.grad == nil {
		l.grad = mat.NewDense(l.out, l.in, nil)
	}
	w := l.weight.RawMatrix()
	g := l.grad.RawMatrix()
	gradIn := make([]float64, l.in)
	for o := 0; o < l.out; o++ {
		d := gradOut[o]
		if d == 0 {
			continue
		}
		floats.AddScaled(g.Data[o*g.Stride:o*g.Stride+l.in], d, x)
		floats.AddScaled(gradIn, d, w.Data[o*w.Stride:o*w.Stride+l.in])
		l.biasGrad[o] += d
	}
	return gradIn
}

func (l *Linear) zeroGrad() {
	if l.grad != nil {
		data := l.grad.RawMatrix().Data
		for i := range data {
			data[i] = 0
		}
	}
	for i := range l.biasGrad {
		l.biasGrad[i] = 0
	}
}

func (l *Linear) step(lr float64) {
	if l.grad != nil {
		floats.AddScaled(l.weight.RawMatrix().Data, -lr, l.grad.RawMatrix().Data)
	}
	floats.AddScaled(l.bias, -lr, l.biasGrad)
}

func (l *Linear) clone() *Linear {
	return &Linear{
		name:     l.name,
		in:       l.in,
		out:      l.out,
		weight:   mat.DenseCopyOf(l.weight),
		bias:     slices.Clone(l.bias),
		biasGrad: make([]float64, l.out),
	}
}
