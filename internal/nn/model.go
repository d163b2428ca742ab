// Package nn implements a small fixed-context feed-forward causal language
// model. Every prunable weight lives in a named Linear layer, so the model
// satisfies the scoring.Network contract out of the box.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/MishaK15/SmartSparse/internal/scoring"
)

const embedInitScale = 0.02

// Config carries the model dimensions.
type Config struct {
	VocabSize    int `json:"vocab_size"`
	ContextSize  int `json:"context_size"`
	EmbedDim     int `json:"embed_dim"`
	HiddenDim    int `json:"hidden_dim"`
	HiddenLayers int `json:"hidden_layers"`
}

func (c Config) validate() error {
	if c.VocabSize <= 0 || c.ContextSize <= 0 || c.EmbedDim <= 0 || c.HiddenDim <= 0 || c.HiddenLayers <= 0 {
		return fmt.Errorf("all model dimensions must be positive, got %+v", c)
	}
	return nil
}

// CausalLM predicts the next token from the embeddings of the last
// ContextSize tokens, concatenated and passed through tanh hidden layers and
// a linear head. The embedding table is a lookup, not a linear transform, and
// is never pruned. Positions before the context fills are left-padded with
// token 0.
type CausalLM struct {
	cfg       Config
	embed     *mat.Dense // [vocab, embed_dim]
	embedGrad *mat.Dense // nil until the first backward pass
	hidden    []*Linear
	lmHead    *Linear
}

var _ scoring.Network = (*CausalLM)(nil)

// New builds a randomly initialized model: embeddings from N(0, 0.02²),
// linear layers He-initialized.
func New(cfg Config, rng *rand.Rand) (*CausalLM, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	embedData := make([]float64, cfg.VocabSize*cfg.EmbedDim)
	for i := range embedData {
		embedData[i] = rng.NormFloat64() * embedInitScale
	}

	m := &CausalLM{
		cfg:   cfg,
		embed: mat.NewDense(cfg.VocabSize, cfg.EmbedDim, embedData),
	}
	in := cfg.ContextSize * cfg.EmbedDim
	for i := 0; i < cfg.HiddenLayers; i++ {
		m.hidden = append(m.hidden, NewLinear(fmt.Sprintf("hidden.%d", i), in, cfg.HiddenDim, rng))
		in = cfg.HiddenDim
	}
	m.lmHead = NewLinear("lm_head", in, cfg.VocabSize, rng)
	return m, nil
}

// Config returns the model dimensions.
func (m *CausalLM) Config() Config { return m.cfg }

// NumParameters counts every trainable scalar, embeddings included.
func (m *CausalLM) NumParameters() int {
	n := m.cfg.VocabSize * m.cfg.EmbedDim
	for _, l := range m.hidden {
		n += l.out*l.in + l.out
	}
	n += m.lmHead.out*m.lmHead.in + m.lmHead.out
	return n
}

// Linears returns the prunable layers in network order: hidden layers first,
// then the head.
func (m *CausalLM) Linears() []scoring.LinearLayer {
	out := make([]scoring.LinearLayer, 0, len(m.hidden)+1)
	for _, l := range m.hidden {
		out = append(out, l)
	}
	return append(out, m.lmHead)
}

// ZeroGrad clears all accumulated gradients.
func (m *CausalLM) ZeroGrad() {
	if m.embedGrad != nil {
		data := m.embedGrad.RawMatrix().Data
		for i := range data {
			data[i] = 0
		}
	}
	for _, l := range m.hidden {
		l.zeroGrad()
	}
	m.lmHead.zeroGrad()
}

// BackwardPass runs one forward/backward over the batch, accumulating
// gradients, and returns the mean cross-entropy over labeled positions.
func (m *CausalLM) BackwardPass(inputIDs, labels [][]int) (float64, error) {
	return m.run(inputIDs, labels, true)
}

// Loss is the forward-only mean cross-entropy over labeled positions.
func (m *CausalLM) Loss(inputIDs, labels [][]int) (float64, error) {
	return m.run(inputIDs, labels, false)
}

// Forward returns the next-token logits following the final position of seq.
func (m *CausalLM) Forward(seq []int) ([]float64, error) {
	if len(seq) == 0 {
		return nil, errors.New("empty sequence")
	}
	if err := m.checkIDs(seq); err != nil {
		return nil, err
	}
	h := m.embedWindow(m.window(seq, len(seq)-1))
	for _, layer := range m.hidden {
		h = layer.Forward(h)
		for j, v := range h {
			h[j] = math.Tanh(v)
		}
	}
	return m.lmHead.Forward(h), nil
}

// Clone deep-copies the model with fresh gradient state, so one pretrained
// instance can serve as the pristine baseline for many pruning arms.
func (m *CausalLM) Clone() *CausalLM {
	c := &CausalLM{cfg: m.cfg, embed: mat.DenseCopyOf(m.embed)}
	for _, l := range m.hidden {
		c.hidden = append(c.hidden, l.clone())
	}
	c.lmHead = m.lmHead.clone()
	return c
}

func (m *CausalLM) run(inputIDs, labels [][]int, withGrad bool) (float64, error) {
	if len(inputIDs) != len(labels) {
		return 0, fmt.Errorf("batch mismatch: %d input rows vs %d label rows", len(inputIDs), len(labels))
	}

	count := 0
	for b := range labels {
		if len(inputIDs[b]) != len(labels[b]) {
			return 0, fmt.Errorf("row %d: input length %d vs label length %d", b, len(inputIDs[b]), len(labels[b]))
		}
		if err := m.checkIDs(inputIDs[b]); err != nil {
			return 0, fmt.Errorf("row %d: %w", b, err)
		}
		for _, l := range labels[b] {
			if l != scoring.IgnoreLabel {
				count++
			}
		}
	}
	if count == 0 {
		return 0, errors.New("no labeled positions in batch")
	}

	invCount := 1 / float64(count)
	lossSum := 0.0
	hiddenIn := make([][]float64, len(m.hidden))
	hiddenOut := make([][]float64, len(m.hidden))

	for b := range inputIDs {
		seq := inputIDs[b]
		for t, label := range labels[b] {
			if label == scoring.IgnoreLabel {
				continue
			}
			if label < 0 || label >= m.cfg.VocabSize {
				return 0, fmt.Errorf("label %d out of vocabulary at row %d position %d", label, b, t)
			}

			win := m.window(seq, t)
			x := m.embedWindow(win)
			h := x
			for i, layer := range m.hidden {
				hiddenIn[i] = h
				h = layer.Forward(h)
				for j, v := range h {
					h[j] = math.Tanh(v)
				}
				hiddenOut[i] = h
			}
			logits := m.lmHead.Forward(h)
			probs := softmax(logits)
			lossSum -= math.Log(probs[label])

			if !withGrad {
				continue
			}
			dlogits := probs
			dlogits[label]--
			floats.Scale(invCount, dlogits)
			dh := m.lmHead.Backward(h, dlogits)
			for i := len(m.hidden) - 1; i >= 0; i-- {
				out := hiddenOut[i]
				for j := range dh {
					dh[j] *= 1 - out[j]*out[j]
				}
				dh = m.hidden[i].Backward(hiddenIn[i], dh)
			}
			m.scatterEmbedGrad(win, dh)
		}
	}
	return lossSum * invCount, nil
}

// window returns the ContextSize ids ending at position t, left-padded with
// token 0.
func (m *CausalLM) window(seq []int, t int) []int {
	win := make([]int, m.cfg.ContextSize)
	for i := range win {
		if p := t - m.cfg.ContextSize + 1 + i; p >= 0 {
			win[i] = seq[p]
		}
	}
	return win
}

func (m *CausalLM) embedWindow(win []int) []float64 {
	x := make([]float64, len(win)*m.cfg.EmbedDim)
	for i, id := range win {
		copy(x[i*m.cfg.EmbedDim:(i+1)*m.cfg.EmbedDim], m.embed.RawRowView(id))
	}
	return x
}

func (m *CausalLM) scatterEmbedGrad(win []int, dx []float64) {
	if m.embedGrad == nil {
		m.embedGrad = mat.NewDense(m.cfg.VocabSize, m.cfg.EmbedDim, nil)
	}
	for i, id := range win {
		floats.Add(m.embedGrad.RawRowView(id), dx[i*m.cfg.EmbedDim:(i+1)*m.cfg.EmbedDim])
	}
}

func (m *CausalLM) checkIDs(seq []int) error {
	for _, id := range seq {
		if id < 0 || id >= m.cfg.VocabSize {
			return fmt.Errorf("token id %d out of vocabulary (size %d)", id, m.cfg.VocabSize)
		}
	}
	return nil
}

func softmax(logits []float64) []float64 {
	max := floats.Max(logits)
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		e := math.Exp(v - max)
		out[i] = e
		sum += e
	}
	floats.Scale(1/sum, out)
	return out
}
