package hub

import (
	"fmt"
	"time"

	"github.com/MishaK15/SmartSparse/internal/nn"
	"github.com/MishaK15/SmartSparse/internal/tokenizer"
)

// Response is the envelope every hub endpoint wraps its payload in.
type Response[T any] struct {
	StatusCode int            `json:"statusCode"`
	Success    bool           `json:"success"`
	Data       T              `json:"data"`
	Error      map[string]any `json:"error"`
}

type (
	CheckpointResponse     = Response[Checkpoint]
	CheckpointListResponse = Response[[]CheckpointSummary]
	PublishResponse        = Response[string]
)

// CheckpointSummary is a listing entry from the hub index.
type CheckpointSummary struct {
	Name       string    `json:"name"`
	Parameters int       `json:"parameters"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Checkpoint bundles a pretrained model with the vocabulary it was trained
// on, everything a scoring run needs to reconstruct the network.
type Checkpoint struct {
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	Tokens    []string   `json:"tokens"`
	Model     *nn.Params `json:"model"`
}

// Snapshot captures a model and its vocabulary as a named checkpoint.
func Snapshot(name string, m *nn.CausalLM, vocab *tokenizer.Vocabulary) *Checkpoint {
	return &Checkpoint{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Tokens:    vocab.Tokens(),
		Model:     m.Export(),
	}
}

// Materialize rebuilds the model and vocabulary from the checkpoint.
func (c *Checkpoint) Materialize() (*nn.CausalLM, *tokenizer.Vocabulary, error) {
	if c.Model == nil {
		return nil, nil, fmt.Errorf("checkpoint %s has no model params", c.Name)
	}
	model, err := nn.FromParams(c.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint %s: %w", c.Name, err)
	}
	vocab, err := tokenizer.FromTokens(c.Tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint %s: %w", c.Name, err)
	}
	if vocab.Size() != c.Model.Config.VocabSize {
		return nil, nil, fmt.Errorf("checkpoint %s: vocabulary has %d tokens, model expects %d",
			c.Name, vocab.Size(), c.Model.Config.VocabSize)
	}
	return model, vocab, nil
}
