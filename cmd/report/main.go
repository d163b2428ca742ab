package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/report"
	"github.com/MishaK15/SmartSparse/internal/utils/logger"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting report server...")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not loaded; continuing with existing environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	s := report.NewServer(&cfg.ReportServerEnvConfig, cfg.ResultsPath)
	s.Start()
}
