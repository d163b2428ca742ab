package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite exercises environment parsing with a controlled
// environment: tracked variables are cleared for the suite and restored
// afterwards so ambient values never leak into default checks.
type ConfigTestSuite struct {
	suite.Suite
	originalEnvs map[string]string
}

var trackedEnvs = []string{
	"ENVIRONMENT",
	"SPARSITY", "FUSION_ALPHA", "FUSION_BETA", "FUSION_GAMMA",
	"QUANT_BITS", "FUSION_JITTER",
	"SEED", "SEED_COUNT", "CALIBRATION_SIZE", "CALIBRATION_DRIFT",
	"MAX_SEQ_LEN", "RESULTS_PATH",
	"VOCAB_SIZE", "CONTEXT_SIZE", "EMBED_DIM", "HIDDEN_DIM", "HIDDEN_LAYERS",
	"PRETRAIN_STEPS", "PRETRAIN_BATCH", "LEARNING_RATE",
	"CORPUS_URL", "CORPUS_PATH", "CORPUS_CACHE", "CORPUS_FETCH_TIMEOUT",
	"HUB_URL", "HUB_CHECKPOINT", "CHECKPOINT_DIR", "HUB_CLIENT_TIMEOUT",
	"REPORT_HOST", "REPORT_PORT",
}

func (s *ConfigTestSuite) SetupSuite() {
	s.originalEnvs = make(map[string]string)
	for _, env := range trackedEnvs {
		if val, ok := os.LookupEnv(env); ok {
			s.originalEnvs[env] = val
			os.Unsetenv(env)
		}
	}
}

func (s *ConfigTestSuite) TearDownSuite() {
	for env, val := range s.originalEnvs {
		os.Setenv(env, val)
	}
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)

	s.Equal("dev", cfg.Environment)
	s.Equal(0.5, cfg.Sparsity)
	s.Equal(-1.0, cfg.Alpha)
	s.Equal(-1.0, cfg.Beta)
	s.Equal(-1.0, cfg.Gamma)
	s.Equal(8, cfg.Bits)
	s.Equal(0.01, cfg.JitterSigma)
	s.Equal(uint64(42), cfg.Seed)
	s.Equal(5, cfg.SeedCount)
	s.Equal(100, cfg.CalibrationSize)
	s.Equal(10, cfg.CalibrationDrift)
	s.Equal(64, cfg.MaxSeqLen)
	s.Equal("results.json", cfg.ResultsPath)

	s.Equal(2048, cfg.VocabSize)
	s.Equal(8, cfg.ContextSize)
	s.Equal(150, cfg.PretrainSteps)

	s.Contains(cfg.CorpusURL, "wikitext-2")
	s.Empty(cfg.CorpusPath)
	s.Equal(60*time.Second, cfg.FetchTimeout)

	s.Empty(cfg.HubURL)
	s.Empty(cfg.Checkpoint)
	s.Equal(30*time.Second, cfg.ClientTimeout)

	s.Equal("0.0.0.0", cfg.ReportHost)
	s.Equal(8080, cfg.ReportPort)
}

func (s *ConfigTestSuite) TestOverrides() {
	s.T().Setenv("SPARSITY", "0.7")
	s.T().Setenv("FUSION_ALPHA", "0.2")
	s.T().Setenv("SEED", "7")
	s.T().Setenv("CALIBRATION_SIZE", "20")
	s.T().Setenv("HUB_URL", "http://localhost:9000")
	s.T().Setenv("HUB_CHECKPOINT", "pretrained-42")
	s.T().Setenv("REPORT_PORT", "9999")
	s.T().Setenv("CORPUS_FETCH_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	s.Require().NoError(err)

	s.Equal(0.7, cfg.Sparsity)
	s.Equal(0.2, cfg.Alpha)
	s.Equal(-1.0, cfg.Beta)
	s.Equal(uint64(7), cfg.Seed)
	s.Equal(20, cfg.CalibrationSize)
	s.Equal("http://localhost:9000", cfg.HubURL)
	s.Equal("pretrained-42", cfg.Checkpoint)
	s.Equal(9999, cfg.ReportPort)
	s.Equal(5*time.Second, cfg.FetchTimeout)
}

func (s *ConfigTestSuite) TestSubsystemLoaders() {
	s.T().Setenv("SPARSITY", "0.25")
	s.T().Setenv("CORPUS_PATH", "/tmp/corpus.txt")

	exp, err := LoadExperimentEnv()
	s.Require().NoError(err)
	s.Equal(0.25, exp.Sparsity)

	cor, err := LoadCorpusEnv()
	s.Require().NoError(err)
	s.Equal("/tmp/corpus.txt", cor.CorpusPath)
}

func (s *ConfigTestSuite) TestInvalidValueFails() {
	s.T().Setenv("SPARSITY", "not-a-number")
	_, err := LoadConfig()
	s.Error(err)
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
