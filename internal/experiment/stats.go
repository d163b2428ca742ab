package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summarize aggregates the runs of one spec: mean and sample standard
// deviation of pruned perplexity plus a 95% Student-t confidence interval.
// With fewer than two runs the interval collapses to the mean.
func Summarize(label string, runs []RunResult) SeedSummary {
	ppl := make([]float64, len(runs))
	degr := make([]float64, len(runs))
	for i, r := range runs {
		ppl[i] = r.PrunedPerplexity
		degr[i] = r.Degradation
	}

	summary := SeedSummary{
		Label:           label,
		Seeds:           len(runs),
		MeanPruned:      stat.Mean(ppl, nil),
		MeanDegradation: stat.Mean(degr, nil),
		Runs:            runs,
	}
	if len(runs) < 2 {
		summary.CILow = summary.MeanPruned
		summary.CIHigh = summary.MeanPruned
		return summary
	}

	summary.StdPruned = stat.StdDev(ppl, nil)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(runs) - 1)}
	margin := tdist.Quantile(0.975) * summary.StdPruned / math.Sqrt(float64(len(runs)))
	summary.CILow = summary.MeanPruned - margin
	summary.CIHigh = summary.MeanPruned + margin
	return summary
}
