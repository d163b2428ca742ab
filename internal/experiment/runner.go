// Package experiment orchestrates pruning runs: calibration sampling,
// scoring, pruning and evaluation across seeds and fusion configurations.
package experiment

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MishaK15/SmartSparse/internal/config"
	"github.com/MishaK15/SmartSparse/internal/corpus"
	"github.com/MishaK15/SmartSparse/internal/nn"
	"github.com/MishaK15/SmartSparse/internal/scoring"
	"github.com/MishaK15/SmartSparse/internal/tokenizer"
)

// baselineSeedBase keeps baseline runs on a seed range disjoint from the
// adaptive runs so their calibration draws never collide.
const baselineSeedBase = 100

// latencyPrompt is the fixed probe used to time one forward pass.
const latencyPrompt = "The quick brown fox"

// DefaultSweepLevels are the sparsity levels the ablation command sweeps.
var DefaultSweepLevels = []float64{0.3, 0.5, 0.7}

// Runner evaluates pruning configurations against a pretrained model. The
// reference model is never pruned; every run scores and prunes a fresh clone.
type Runner struct {
	Model *nn.CausalLM
	Vocab *tokenizer.Vocabulary
	Text  string

	ExperimentConfig *config.ExperimentEnvConfig
}

// NewRunner wires a runner to the model, vocabulary and raw corpus text it
// will draw calibration batches from.
func NewRunner(cfg *config.ExperimentEnvConfig, model *nn.CausalLM, vocab *tokenizer.Vocabulary, text string) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary cannot be nil")
	}
	if text == "" {
		return nil, fmt.Errorf("corpus text cannot be empty")
	}
	return &Runner{
		Model:            model,
		Vocab:            vocab,
		Text:             text,
		ExperimentConfig: cfg,
	}, nil
}

// Spec builds a RunSpec with the configured sparsity and bit width.
func (r *Runner) Spec(label string, fusion scoring.FusionWeights) RunSpec {
	return RunSpec{
		Label:    label,
		Fusion:   fusion,
		Sparsity: r.ExperimentConfig.Sparsity,
		Bits:     r.ExperimentConfig.Bits,
	}
}

// Run executes one seeded experiment: draw a calibration batch, measure
// baseline perplexity, score and prune a clone, measure pruned perplexity.
// The seed drives both the calibration size jitter and the fusion jitter.
func (r *Runner) Run(spec RunSpec, seed uint64) (RunResult, error) {
	if spec.Bits <= 0 {
		spec.Bits = scoring.DefaultBits
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	n := r.ExperimentConfig.CalibrationSize
	if drift := r.ExperimentConfig.CalibrationDrift; drift > 0 {
		n += rng.IntN(2*drift+1) - drift
	}
	texts := corpus.Paragraphs(r.Text, n)
	if len(texts) == 0 {
		return RunResult{}, fmt.Errorf("corpus produced no calibration samples")
	}
	log.Debug().Msgf("run %s seed %d: %d calibration samples", spec.Label, seed, len(texts))

	inputs, labels, err := r.Vocab.PrepareBatch(texts, r.ExperimentConfig.MaxSeqLen)
	if err != nil {
		return RunResult{}, fmt.Errorf("prepare calibration batch: %w", err)
	}

	basePPL, baseLoss, err := nn.Perplexity(r.Model, inputs, labels)
	if err != nil {
		return RunResult{}, fmt.Errorf("baseline perplexity: %w", err)
	}

	pruned := r.Model.Clone()
	sess := scoring.NewSession(pruned,
		scoring.WithFusionWeights(spec.Fusion),
		scoring.WithBits(spec.Bits),
		scoring.WithJitter(r.ExperimentConfig.JitterSigma),
		scoring.WithRand(rng),
	)
	if _, err := sess.Score(inputs, labels); err != nil {
		return RunResult{}, fmt.Errorf("score: %w", err)
	}
	report, err := sess.Prune(spec.Sparsity)
	if err != nil {
		return RunResult{}, fmt.Errorf("prune: %w", err)
	}

	prunedPPL, prunedLoss, err := nn.Perplexity(pruned, inputs, labels)
	if err != nil {
		return RunResult{}, fmt.Errorf("pruned perplexity: %w", err)
	}

	latency, err := profileLatency(pruned, r.Vocab, r.ExperimentConfig.MaxSeqLen)
	if err != nil {
		return RunResult{}, fmt.Errorf("latency profile: %w", err)
	}

	result := RunResult{
		Label:            spec.Label,
		Seed:             seed,
		Sparsity:         spec.Sparsity,
		CalibrationSize:  len(texts),
		BaseLoss:         baseLoss,
		BasePerplexity:   basePPL,
		PrunedLoss:       prunedLoss,
		PrunedPerplexity: prunedPPL,
		Degradation:      prunedPPL / basePPL,
		Resolved:         sess.Weights(),
		Prune:            report,
		Latency:          latency,
	}
	log.Info().Msgf("run %s seed %d: base ppl %.2f, pruned ppl %.2f, degradation %.2fx",
		spec.Label, seed, basePPL, prunedPPL, result.Degradation)
	return result, nil
}

// RunSeeds evaluates a spec across count consecutive seeds starting at
// seedBase and aggregates the outcomes.
func (r *Runner) RunSeeds(spec RunSpec, seedBase uint64, count int) (SeedSummary, error) {
	if count <= 0 {
		return SeedSummary{}, fmt.Errorf("seed count must be positive, got %d", count)
	}

	runs := make([]RunResult, 0, count)
	for i := 0; i < count; i++ {
		seed := seedBase + uint64(i)
		res, err := r.Run(spec, seed)
		if err != nil {
			return SeedSummary{}, fmt.Errorf("seed %d: %w", seed, err)
		}
		runs = append(runs, res)
	}

	summary := Summarize(spec.Label, runs)
	log.Info().Msgf("%s: pruned ppl %.2f ± %.2f (95%% CI [%.2f, %.2f], n=%d)",
		spec.Label, summary.MeanPruned, summary.StdPruned, summary.CILow, summary.CIHigh, summary.Seeds)
	return summary, nil
}

// RunBaselineComparison runs adaptive fusion against the three single-signal
// baselines, each across the configured number of seeds.
func (r *Runner) RunBaselineComparison() ([]SeedSummary, error) {
	specs := []struct {
		spec     RunSpec
		seedBase uint64
	}{
		{r.Spec("smartsparse", scoring.AdaptiveFusion()), r.ExperimentConfig.Seed},
		{r.Spec("sap", scoring.FusionWeights{Alpha: 1}), baselineSeedBase},
		{r.Spec("movement", scoring.FusionWeights{Beta: 1}), baselineSeedBase},
		{r.Spec("hessian", scoring.FusionWeights{Gamma: 1}), baselineSeedBase},
	}

	summaries := make([]SeedSummary, 0, len(specs))
	for _, s := range specs {
		summary, err := r.RunSeeds(s.spec, s.seedBase, r.ExperimentConfig.SeedCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.spec.Label, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// FusionGrid is the fixed ablation over fusion triples: single-signal
// corners, pairwise halves and the uniform blend.
func FusionGrid() []scoring.FusionWeights {
	third := 1.0 / 3
	return []scoring.FusionWeights{
		{Alpha: 1},
		{Beta: 1},
		{Gamma: 1},
		{Alpha: 0.5, Beta: 0.5},
		{Beta: 0.5, Gamma: 0.5},
		{Alpha: 0.5, Gamma: 0.5},
		{Alpha: third, Beta: third, Gamma: third},
	}
}

// RunGrid evaluates every fusion triple of the ablation grid once at the
// configured seed and sparsity.
func (r *Runner) RunGrid() ([]RunResult, error) {
	grid := FusionGrid()
	results := make([]RunResult, 0, len(grid))
	for _, fw := range grid {
		label := fmt.Sprintf("%.1f-%.1f-%.1f", fw.Alpha, fw.Beta, fw.Gamma)
		res, err := r.Run(r.Spec(label, fw), r.ExperimentConfig.Seed)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", label, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// RunSweep evaluates adaptive fusion at each sparsity level with the
// configured seed.
func (r *Runner) RunSweep(levels []float64) ([]RunResult, error) {
	results := make([]RunResult, 0, len(levels))
	for _, level := range levels {
		spec := r.Spec(fmt.Sprintf("sparsity-%d%%", int(level*100)), scoring.AdaptiveFusion())
		spec.Sparsity = level
		res, err := r.Run(spec, r.ExperimentConfig.Seed)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", spec.Label, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// profileLatency times a single forward pass over the fixed prompt and
// samples heap usage right after it.
func profileLatency(m *nn.CausalLM, vocab *tokenizer.Vocabulary, maxLen int) (LatencyProfile, error) {
	ids := vocab.Encode(latencyPrompt, maxLen)

	start := time.Now()
	if _, err := m.Forward(ids); err != nil {
		return LatencyProfile{}, err
	}
	elapsed := time.Since(start)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return LatencyProfile{
		ForwardMicros:  elapsed.Microseconds(),
		HeapAllocBytes: ms.HeapAlloc,
	}, nil
}
