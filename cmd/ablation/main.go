package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/corpus"
	"github.com/MishaK15/SmartSparse/internal/experiment"
	"github.com/MishaK15/SmartSparse/internal/utils/logger"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting fusion ablation...")

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

	runner, err := experiment.NewRunner(&cfg.ExperimentEnvConfig, model, vocab, text)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init runner")
	}

	grid, err := runner.RunGrid()
	if err != nil {
		log.Fatal().Err(err).Msg("fusion grid failed")
	}
	experiment.PlotDegradations(grid, "Fusion Weight Ablation vs Degradation")

	summaries, err := runner.RunBaselineComparison()
	if err != nil {
		log.Fatal().Err(err).Msg("baseline comparison failed")
	}
	experiment.PlotSummaries(summaries, "Baseline Comparison: Mean Pruned PPL")

	sweep, err := runner.RunSweep(experiment.DefaultSweepLevels)
	if err != nil {
		log.Fatal().Err(err).Msg("sparsity sweep failed")
	}
	experiment.PlotDegradations(sweep, "Sparsity Sweep: Degradation")

	results := &experiment.Results{
		CreatedAt: time.Now().UTC(),
		Model:     model.Config(),
		Summaries: summaries,
		Grid:      grid,
		Sweep:     sweep,
	}
	if err := experiment.SaveResults(cfg.ResultsPath, results); err != nil {
		log.Fatal().Err(err).Msg("failed to save results")
	}
	log.Info().Msgf("ablation complete: %d grid points, %d methods, %d sweep levels",
		len(grid), len(summaries), len(sweep))
}
