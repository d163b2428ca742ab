package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Params is the serializable form of a model, the shape persisted in
// checkpoint files and served by the model hub.
type Params struct {
	Config    Config                 `json:"config"`
	Embedding [][]float64            `json:"embedding"`
	Weights   map[string][][]float64 `json:"weights"`
	Biases    map[string][]float64   `json:"biases"`
}

// Export snapshots the model into its serializable form.
func (m *CausalLM) Export() *Params {
	p := &Params{
		Config:    m.cfg,
		Embedding: denseToRows(m.embed),
		Weights:   make(map[string][][]float64),
		Biases:    make(map[string][]float64),
	}
	for _, l := range m.hidden {
		p.Weights[l.name] = denseToRows(l.weight)
		p.Biases[l.name] = append([]float64(nil), l.bias...)
	}
	p.Weights[m.lmHead.name] = denseToRows(m.lmHead.weight)
	p.Biases[m.lmHead.name] = append([]float64(nil), m.lmHead.bias...)
	return p
}

// FromParams rebuilds a model from its serializable form, validating every
// tensor shape against the config.
func FromParams(p *Params) (*CausalLM, error) {
	if err := p.Config.validate(); err != nil {
		return nil, err
	}

	embed, err := rowsToDense(p.Embedding, p.Config.VocabSize, p.Config.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	m := &CausalLM{cfg: p.Config, embed: embed}
	in := p.Config.ContextSize * p.Config.EmbedDim
	for i := 0; i < p.Config.HiddenLayers; i++ {
		name := fmt.Sprintf("hidden.%d", i)
		l, err := linearFromParams(p, name, in, p.Config.HiddenDim)
		if err != nil {
			return nil, err
		}
		m.hidden = append(m.hidden, l)
		in = p.Config.HiddenDim
	}
	head, err := linearFromParams(p, "lm_head", in, p.Config.VocabSize)
	if err != nil {
		return nil, err
	}
	m.lmHead = head
	return m, nil
}

func linearFromParams(p *Params, name string, in, out int) (*Linear, error) {
	rows, ok := p.Weights[name]
	if !ok {
		return nil, fmt.Errorf("layer %s: missing weights", name)
	}
	w, err := rowsToDense(rows, out, in)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	bias, ok := p.Biases[name]
	if !ok {
		return nil, fmt.Errorf("layer %s: missing biases", name)
	}
	if len(bias) != out {
		return nil, fmt.Errorf("layer %s: bias length %d, want %d", name, len(bias), out)
	}
	return &Linear{
		name:     name,
		in:       in,
		out:      out,
		weight:   w,
		bias:     append([]float64(nil), bias...),
		biasGrad: make([]float64, out),
	}, nil
}

func denseToRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return rows
}

func rowsToDense(rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("got %d rows, want %d", len(rows), r)
	}
	out := mat.NewDense(r, c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), c)
		}
		out.SetRow(i, row)
	}
	return out, nil
}
