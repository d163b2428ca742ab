// Package config loads runtime configuration from environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig aggregates every subsystem configuration. Fields resolve from
// the environment with sensible defaults so a bare `go run` works offline.
type AppConfig struct {
	ExperimentEnvConfig
	ModelEnvConfig
	CorpusEnvConfig
	HubEnvConfig
	ReportServerEnvConfig
}

// ExperimentEnvConfig holds the pruning experiment parameters.
type ExperimentEnvConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	// Sparsity is the target fraction of weights to remove, in [0, 1].
	Sparsity float64 `env:"SPARSITY" envDefault:"0.5"`
	// Alpha, Beta and Gamma weigh the quantization, movement and curvature
	// scores. All three at -1 selects entropy-adaptive weighting.
	Alpha            float64 `env:"FUSION_ALPHA" envDefault:"-1"`
	Beta             float64 `env:"FUSION_BETA" envDefault:"-1"`
	Gamma            float64 `env:"FUSION_GAMMA" envDefault:"-1"`
	Bits             int     `env:"QUANT_BITS" envDefault:"8"`
	JitterSigma      float64 `env:"FUSION_JITTER" envDefault:"0.01"`
	Seed             uint64  `env:"SEED" envDefault:"42"`
	SeedCount        int     `env:"SEED_COUNT" envDefault:"5"`
	CalibrationSize  int     `env:"CALIBRATION_SIZE" envDefault:"100"`
	CalibrationDrift int     `env:"CALIBRATION_DRIFT" envDefault:"10"`
	MaxSeqLen        int     `env:"MAX_SEQ_LEN" envDefault:"64"`
	ResultsPath      string  `env:"RESULTS_PATH" envDefault:"results.json"`
}

// ModelEnvConfig holds the bundled model dimensions and pretraining knobs.
// They only apply when no hub checkpoint is configured.
type ModelEnvConfig struct {
	VocabSize     int     `env:"VOCAB_SIZE" envDefault:"2048"`
	ContextSize   int     `env:"CONTEXT_SIZE" envDefault:"8"`
	EmbedDim      int     `env:"EMBED_DIM" envDefault:"32"`
	HiddenDim     int     `env:"HIDDEN_DIM" envDefault:"128"`
	HiddenLayers  int     `env:"HIDDEN_LAYERS" envDefault:"2"`
	PretrainSteps int     `env:"PRETRAIN_STEPS" envDefault:"150"`
	PretrainBatch int     `env:"PRETRAIN_BATCH" envDefault:"16"`
	LearningRate  float64 `env:"LEARNING_RATE" envDefault:"0.05"`
}

// CorpusEnvConfig configures calibration text acquisition.
type CorpusEnvConfig struct {
	CorpusURL string `env:"CORPUS_URL" envDefault:"https://raw.githubusercontent.com/pytorch/examples/master/word_language_model/data/wikitext-2/train.txt"`
	// CorpusPath points at a local text file and bypasses the network.
	CorpusPath   string        `env:"CORPUS_PATH"`
	CachePath    string        `env:"CORPUS_CACHE" envDefault:".cache/smartsparse/corpus.txt.zst"`
	FetchTimeout time.Duration `env:"CORPUS_FETCH_TIMEOUT" envDefault:"60s"`
}

// HubEnvConfig configures the checkpoint hub client.
type HubEnvConfig struct {
	HubURL string `env:"HUB_URL"`
	// Checkpoint names a pretrained model to fetch instead of pretraining
	// locally. Empty means pretrain.
	Checkpoint    string        `env:"HUB_CHECKPOINT"`
	CheckpointDir string        `env:"CHECKPOINT_DIR" envDefault:".cache/smartsparse/checkpoints"`
	ClientTimeout time.Duration `env:"HUB_CLIENT_TIMEOUT" envDefault:"30s"`
}

// ReportServerEnvConfig configures the results report server.
type ReportServerEnvConfig struct {
	ReportHost string `env:"REPORT_HOST" envDefault:"0.0.0.0"`
	ReportPort int    `env:"REPORT_PORT" envDefault:"8080"`
}

// LoadConfig parses the full application configuration from the environment.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadExperimentEnv parses only the experiment parameters.
func LoadExperimentEnv() (*ExperimentEnvConfig, error) {
	cfg := &ExperimentEnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCorpusEnv parses only the corpus parameters.
func LoadCorpusEnv() (*CorpusEnvConfig, error) {
	cfg := &CorpusEnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
