package nn

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestLinear_ForwardKnownValues(t *testing.T) {
	l := NewLinear("test", 2, 2, rand.New(rand.NewPCG(1, 1)))
	l.weight.Set(0, 0, 1)
	l.weight.Set(0, 1, 2)
	l.weight.Set(1, 0, 3)
	l.weight.Set(1, 1, 4)
	l.bias[0] = 0.5
	l.bias[1] = -0.5

	y := l.Forward([]float64{1, 1})

	if y[0] != 3.5 || y[1] != 6.5 {
		t.Fatalf("forward: got %v want [3.5 6.5]", y)
	}
}

func TestLinear_GradNilUntilBackward(t *testing.T) {
	l := NewLinear("test", 3, 2, rand.New(rand.NewPCG(1, 1)))

	if l.Grad() != nil {
		t.Fatalf("grad must be nil before any backward pass")
	}

	l.Backward([]float64{1, 2, 3}, []float64{0.5, -1})
	if l.Grad() == nil {
		t.Fatalf("grad must exist after backward")
	}
}

func TestLinear_BackwardAccumulates(t *testing.T) {
	l := NewLinear("test", 2, 1, rand.New(rand.NewPCG(1, 1)))
	x := []float64{1, 2}
	gradOut := []float64{0.5}

	l.Backward(x, gradOut)
	first := l.Grad().At(0, 1)
	l.Backward(x, gradOut)

	if got := l.Grad().At(0, 1); math.Abs(got-2*first) > 1e-15 {
		t.Fatalf("gradients must accumulate: got %v want %v", got, 2*first)
	}

	l.zeroGrad()
	if got := l.Grad().At(0, 1); got != 0 {
		t.Fatalf("zeroGrad must clear: got %v", got)
	}
}

func TestLinear_BackwardGradients(t *testing.T) {
	// With loss gradient d at the output: dW[o][i] = d[o]*x[i],
	// dbias[o] = d[o], dx[i] = Σ_o d[o]*W[o][i].
	l := NewLinear("test", 2, 2, rand.New(rand.NewPCG(1, 1)))
	l.weight.Set(0, 0, 1)
	l.weight.Set(0, 1, 2)
	l.weight.Set(1, 0, 3)
	l.weight.Set(1, 1, 4)

	x := []float64{0.5, -1}
	d := []float64{2, 1}
	gradIn := l.Backward(x, d)

	wantGrad := [][]float64{{1, -2}, {0.5, -1}}
	for o := range wantGrad {
		for i := range wantGrad[o] {
			if got := l.Grad().At(o, i); got != wantGrad[o][i] {
				t.Fatalf("dW[%d][%d]: got %v want %v", o, i, got, wantGrad[o][i])
			}
		}
	}
	if l.biasGrad[0] != 2 || l.biasGrad[1] != 1 {
		t.Fatalf("dbias: got %v", l.biasGrad)
	}
	if gradIn[0] != 2*1+1*3 || gradIn[1] != 2*2+1*4 {
		t.Fatalf("dx: got %v want [5 8]", gradIn)
	}
}
