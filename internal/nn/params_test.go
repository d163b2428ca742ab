package nn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestParams_RoundTrip(t *testing.T) {
	m := tinyModel(t)

	rebuilt, err := FromParams(m.Export())
	if err != nil {
		t.Fatalf("from params: %v", err)
	}

	if !mat.Equal(m.embed, rebuilt.embed) {
		t.Fatalf("embedding changed across round trip")
	}
	for i := range m.hidden {
		if !mat.Equal(m.hidden[i].weight, rebuilt.hidden[i].weight) {
			t.Fatalf("hidden.%d weights changed across round trip", i)
		}
	}
	if !mat.Equal(m.lmHead.weight, rebuilt.lmHead.weight) {
		t.Fatalf("lm_head weights changed across round trip")
	}

	inputs, labels := tinyBatch()
	a, err := m.Loss(inputs, labels)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	b, err := rebuilt.Loss(inputs, labels)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if math.Abs(a-b) > 1e-15 {
		t.Fatalf("round-tripped model diverges: %v vs %v", a, b)
	}
}

func TestFromParams_ValidatesShapes(t *testing.T) {
	m := tinyModel(t)

	p := m.Export()
	p.Weights["hidden.0"] = p.Weights["hidden.0"][:2]
	if _, err := FromParams(p); err == nil {
		t.Fatalf("expected error for truncated weight matrix")
	}

	p = m.Export()
	delete(p.Weights, "lm_head")
	if _, err := FromParams(p); err == nil {
		t.Fatalf("expected error for missing layer")
	}

	p = m.Export()
	p.Biases["hidden.0"] = p.Biases["hidden.0"][:1]
	if _, err := FromParams(p); err == nil {
		t.Fatalf("expected error for short bias vector")
	}

	p = m.Export()
	p.Config.HiddenDim = 0
	if _, err := FromParams(p); err == nil {
		t.Fatalf("expected error for invalid config")
	}
}
