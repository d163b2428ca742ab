package nn

import "math"

// Perplexity evaluates exp(mean cross-entropy) over the batch, forward only.
// Returns (perplexity, loss).
func Perplexity(m *CausalLM, inputIDs, labels [][]int) (float64, float64, error) {
	loss, err := m.Loss(inputIDs, labels)
	if err != nil {
		return 0, 0, err
	}
	return math.Exp(loss), loss, nil
}
