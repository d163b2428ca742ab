package experiment

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/corpus"
	"github.com/MishaK15/SmartSparse/internal/hub"
	"github.com/MishaK15/SmartSparse/internal/nn"
	"github.com/MishaK15/SmartSparse/internal/tokenizer"
)

// Bootstrap assembles the model and vocabulary for a session. A configured
// checkpoint name resolves through the local cache and the hub; otherwise a
// vocabulary is built from the corpus and a fresh model is pretrained on it.
func Bootstrap(cfg *config.AppConfig, text string) (*nn.CausalLM, *tokenizer.Vocabulary, error) {
	if cfg.Checkpoint != "" {
		var h *hub.Hub
		if cfg.HubURL != "" {
			var err error
			h, err = hub.NewHub(&cfg.HubEnvConfig)
			if err != nil {
				return nil, nil, fmt.Errorf("init hub client: %w", err)
			}
		}
		ck, err := hub.ResolveCheckpoint(h, cfg.CheckpointDir, cfg.Checkpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve checkpoint %s: %w", cfg.Checkpoint, err)
		}
		log.Info().Msgf("using hub checkpoint %s", cfg.Checkpoint)
		return ck.Materialize()
	}

	texts := corpus.Paragraphs(text, cfg.CalibrationSize)
	if len(texts) == 0 {
		return nil, nil, fmt.Errorf("corpus produced no pretraining samples")
	}
	vocab := tokenizer.Build(texts, cfg.VocabSize)

	inputs, labels, err := vocab.PrepareBatch(texts, cfg.MaxSeqLen)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare pretraining batch: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	model, err := nn.New(nn.Config{
		VocabSize:    vocab.Size(),
		ContextSize:  cfg.ContextSize,
		EmbedDim:     cfg.EmbedDim,
		HiddenDim:    cfg.HiddenDim,
		HiddenLayers: cfg.HiddenLayers,
	}, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("init model: %w", err)
	}

	log.Info().Msgf("pretraining %d-parameter model for %d steps", model.NumParameters(), cfg.PretrainSteps)
	loss, err := model.Pretrain(inputs, labels, cfg.PretrainSteps, cfg.PretrainBatch, cfg.LearningRate, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("pretrain: %w", err)
	}
	log.Info().Msgf("pretraining finished with loss %.4f", loss)
	return model, vocab, nil
}
