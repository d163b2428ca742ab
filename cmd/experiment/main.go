package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/corpus"
	"github.com/MishaK15/SmartSparse/internal/experiment"
	"github.com/MishaK15/SmartSparse/internal/hub"
	"github.com/MishaK15/SmartSparse/internal/nn"
	"github.com/MishaK15/SmartSparse/internal/scoring"
	"github.com/MishaK15/SmartSparse/internal/tokenizer"
	"github.com/MishaK15/SmartSparse/internal/utils/logger"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting pruning experiment...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	text, err := corpus.NewFetcher(&cfg.CorpusEnvConfig).Text(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to acquire corpus")
	}

	model, vocab, err := experiment.Bootstrap(cfg, text)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap model")
	}

	if cfg.HubURL != "" && cfg.Checkpoint == "" {
		publishPretrained(cfg, model, vocab)
	}

	runner, err := experiment.NewRunner(&cfg.ExperimentEnvConfig, model, vocab, text)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init runner")
	}

	fusion := scoring.FusionWeights{Alpha: cfg.Alpha, Beta: cfg.Beta, Gamma: cfg.Gamma}
	summary, err := runner.RunSeeds(runner.Spec("smartsparse", fusion), cfg.Seed, cfg.SeedCount)
	if err != nil {
		log.Fatal().Err(err).Msg("experiment failed")
	}

	experiment.PlotSeedPerplexities(summary.Runs, "Pruned Perplexity per Seed")
	experiment.PlotSeedDegradations(summary.Runs, "Degradation Ratio (Pruned / Base)")
	last := summary.Runs[len(summary.Runs)-1]
	experiment.PlotLayerSparsity(last.Prune, "Per-Layer Sparsity (last seed)")

	results := &experiment.Results{
		CreatedAt: time.Now().UTC(),
		Model:     model.Config(),
		Summaries: []experiment.SeedSummary{summary},
	}
	if err := experiment.SaveResults(cfg.ResultsPath, results); err != nil {
		log.Fatal().Err(err).Msg("failed to save results")
	}

	log.Info().Msgf("experiment complete: pruned ppl %.2f ± %.2f (95%% CI [%.2f, %.2f])",
		summary.MeanPruned, summary.StdPruned, summary.CILow, summary.CIHigh)
}

// publishPretrained pushes a freshly pretrained model to the hub so later
// sessions can resolve it by name instead of pretraining again.
func publishPretrained(cfg *config.AppConfig, model *nn.CausalLM, vocab *tokenizer.Vocabulary) {
	h, err := hub.NewHub(&cfg.HubEnvConfig)
	if err != nil {
		log.Warn().Err(err).Msg("hub configured but client init failed, skipping publish")
		return
	}
	name := fmt.Sprintf("pretrained-%d", cfg.Seed)
	if _, err := h.PublishCheckpoint(hub.Snapshot(name, model, vocab)); err != nil {
		log.Warn().Err(err).Msgf("failed to publish checkpoint %s", name)
		return
	}
	log.Info().Msgf("published checkpoint %s to hub", name)
}
