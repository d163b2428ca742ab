package experiment

import (
	"time"

	"github.com/MishaK15/SmartSparse/internal/nn"
	"github.com/MishaK15/SmartSparse/internal/scoring"
)

// RunSpec names one fusion configuration to evaluate.
type RunSpec struct {
	Label    string                `json:"label"`
	Fusion   scoring.FusionWeights `json:"fusion"`
	Sparsity float64               `json:"sparsity"`
	Bits     int                   `json:"bits"`
}

// LatencyProfile is a coarse single-forward timing plus heap usage, taken on
// the pruned model.
type LatencyProfile struct {
	ForwardMicros  int64  `json:"forwardMicros"`
	HeapAllocBytes uint64 `json:"heapAllocBytes"`
}

// RunResult captures one seed's outcome: perplexity before and after the
// prune, their ratio, and the fusion triple that produced the mask.
type RunResult struct {
	Label            string                `json:"label"`
	Seed             uint64                `json:"seed"`
	Sparsity         float64               `json:"sparsity"`
	CalibrationSize  int                   `json:"calibrationSize"`
	BaseLoss         float64               `json:"baseLoss"`
	BasePerplexity   float64               `json:"basePerplexity"`
	PrunedLoss       float64               `json:"prunedLoss"`
	PrunedPerplexity float64               `json:"prunedPerplexity"`
	Degradation      float64               `json:"degradation"`
	Resolved         scoring.FusionWeights `json:"resolvedWeights"`
	Prune            *scoring.PruneReport  `json:"prune"`
	Latency          LatencyProfile        `json:"latency"`
}

// SeedSummary aggregates runs of one spec across seeds. The confidence
// interval is a 95% Student-t interval over pruned perplexity.
type SeedSummary struct {
	Label           string      `json:"label"`
	Seeds           int         `json:"seeds"`
	MeanPruned      float64     `json:"meanPrunedPerplexity"`
	StdPruned       float64     `json:"stdPrunedPerplexity"`
	CILow           float64     `json:"ciLow"`
	CIHigh          float64     `json:"ciHigh"`
	MeanDegradation float64     `json:"meanDegradation"`
	Runs            []RunResult `json:"runs"`
}

// Results is the persisted output of an experiment session, the document the
// report server exposes.
type Results struct {
	CreatedAt time.Time     `json:"createdAt"`
	Model     nn.Config     `json:"model"`
	Summaries []SeedSummary `json:"summaries"`
	Grid      []RunResult   `json:"grid,omitempty"`
	Sweep     []RunResult   `json:"sweep,omitempty"`
}
