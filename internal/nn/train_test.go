package nn

import (
	"math/rand/v2"
	"testing"

	"github.com/MishaK15/SmartSparse/internal/scoring"
)

// cyclicBatch builds sequences walking the vocabulary in order, a pattern a
// context window of two can learn exactly.
func cyclicBatch(vocab, rows, length int) (inputs, labels [][]int) {
	for r := 0; r < rows; r++ {
		seq := make([]int, length)
		lab := make([]int, length)
		for i := range seq {
			seq[i] = (r + i) % vocab
		}
		for i := 0; i < length-1; i++ {
			lab[i] = seq[i+1]
		}
		lab[length-1] = scoring.IgnoreLabel
		inputs = append(inputs, seq)
		labels = append(labels, lab)
	}
	return inputs, labels
}

func TestPretrain_ReducesLoss(t *testing.T) {
	cfg := Config{VocabSize: 5, ContextSize: 2, EmbedDim: 4, HiddenDim: 8, HiddenLayers: 1}
	m, err := New(cfg, rand.New(rand.NewPCG(3, 3)))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	inputs, labels := cyclicBatch(5, 6, 8)

	before, err := m.Loss(inputs, labels)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}

	if _, err := m.Pretrain(inputs, labels, 200, 0, 0.1, rand.New(rand.NewPCG(4, 4))); err != nil {
		t.Fatalf("pretrain: %v", err)
	}

	after, err := m.Loss(inputs, labels)
	if err != nil {
		t.Fatalf("loss: %v", err)
	}
	if after >= before {
		t.Fatalf("pretraining did not reduce loss: before %v after %v", before, after)
	}
}

func TestPretrain_EmptyBatch(t *testing.T) {
	m := tinyModel(t)
	if _, err := m.Pretrain(nil, nil, 10, 0, 0.1, rand.New(rand.NewPCG(1, 1))); err == nil {
		t.Fatalf("expected error for empty training batch")
	}
}

func TestPretrain_SeedsAreReproducible(t *testing.T) {
	cfg := Config{VocabSize: 5, ContextSize: 2, EmbedDim: 4, HiddenDim: 8, HiddenLayers: 1}
	inputs, labels := cyclicBatch(5, 6, 8)

	train := func() float64 {
		m, err := New(cfg, rand.New(rand.NewPCG(3, 3)))
		if err != nil {
			t.Fatalf("new model: %v", err)
		}
		if _, err := m.Pretrain(inputs, labels, 50, 4, 0.1, rand.New(rand.NewPCG(9, 9))); err != nil {
			t.Fatalf("pretrain: %v", err)
		}
		loss, err := m.Loss(inputs, labels)
		if err != nil {
			t.Fatalf("loss: %v", err)
		}
		return loss
	}

	if a, b := train(), train(); a != b {
		t.Fatalf("same seeds must reproduce the same model: %v vs %v", a, b)
	}
}
