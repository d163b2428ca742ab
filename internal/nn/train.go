package nn

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
)

// Pretrain runs plain SGD over random minibatches so the bundled model has
// something worth pruning before a baseline is measured. Returns the loss of
// the final step. batchSize outside (0, len] means full batch.
func (m *CausalLM) Pretrain(inputIDs, labels [][]int, steps, batchSize int, lr float64, rng *rand.Rand) (float64, error) {
	if len(inputIDs) == 0 {
		return 0, errors.New("empty training batch")
	}
	if steps <= 0 {
		return 0, fmt.Errorf("steps must be positive, got %d", steps)
	}
	if batchSize <= 0 || batchSize > len(inputIDs) {
		batchSize = len(inputIDs)
	}

	batchIn := make([][]int, batchSize)
	batchLabels := make([][]int, batchSize)
	loss := 0.0
	for step := 0; step < steps; step++ {
		perm := rng.Perm(len(inputIDs))
		for i := 0; i < batchSize; i++ {
			batchIn[i] = inputIDs[perm[i]]
			batchLabels[i] = labels[perm[i]]
		}

		m.ZeroGrad()
		l, err := m.run(batchIn, batchLabels, true)
		if err != nil {
			return 0, fmt.Errorf("pretrain step %d: %w", step, err)
		}
		m.step(lr)
		loss = l

		if step%10 == 0 {
			log.Debug().Msgf("pretrain step %d/%d loss %.4f", step, steps, l)
		}
	}
	return loss, nil
}

func (m *CausalLM) step(lr float64) {
	if m.embedGrad != nil {
		data := m.embed.RawMatrix().Data
		grad := m.embedGrad.RawMatrix().Data
		for i := range data {
			data[i] -= lr * grad[i]
		}
	}
	for _, l := range m.hidden {
		l.step(lr)
	}
	m.lmHead.step(lr)
}
