package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MishaK15/SmartSparse/internal/scoring"
)

// PlotValuesTerminal renders labeled values as horizontal unicode bars,
// sorted ascending and scaled to the observed range.
func PlotValuesTerminal(labels []string, values []float64, title string) {
	if len(labels) == 0 || len(labels) != len(values) {
		return
	}

	type entry struct {
		Label string
		Value float64
	}

	entries := make([]entry, len(values))
	for i := range values {
		entries[i] = entry{
			Label: labels[i],
			Value: values[i],
		}
	}

	// Sort by value in ascending order
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Value < entries[j].Value
	})

	// Find min and max for scaling
	minValue := entries[0].Value
	maxValue := entries[len(entries)-1].Value

	labelWidth := 8
	for _, e := range entries {
		if len(e.Label) > labelWidth {
			labelWidth = len(e.Label)
		}
	}

	fmt.Printf("\n%s (Terminal Plot - Ascending Order):\n", title)
	fmt.Printf("%-*s | Value    | Bar Chart\n", labelWidth, "Label")
	fmt.Println(strings.Repeat("-", labelWidth+1) + "|----------|" + strings.Repeat("-", 50))

	// Plot each value as a horizontal bar
	maxBarWidth := 50
	for _, e := range entries {
		// Normalize value to bar width
		var barWidth int
		if maxValue != minValue {
			barWidth = int((e.Value - minValue) / (maxValue - minValue) * float64(maxBarWidth))
		} else {
			barWidth = maxBarWidth / 2
		}

		// Create bar
		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		fmt.Printf("%-*s | %.6f | %s (%.4f)\n", labelWidth, e.Label, e.Value, bar, e.Value)
	}

	fmt.Printf("\nScale: Min=%.6f, Max=%.6f\n", minValue, maxValue)
	fmt.Printf("Bar width represents relative value (0 to %d chars)\n", maxBarWidth)
}

// PlotSeedPerplexities plots pruned perplexity per seed for one batch of runs.
func PlotSeedPerplexities(runs []RunResult, title string) {
	labels := make([]string, len(runs))
	values := make([]float64, len(runs))
	for i, r := range runs {
		labels[i] = fmt.Sprintf("seed %d", r.Seed)
		values[i] = r.PrunedPerplexity
	}
	PlotValuesTerminal(labels, values, title)
}

// PlotDegradations plots the degradation ratio per run, keyed by run label.
func PlotDegradations(runs []RunResult, title string) {
	labels := make([]string, len(runs))
	values := make([]float64, len(runs))
	for i, r := range runs {
		labels[i] = r.Label
		values[i] = r.Degradation
	}
	PlotValuesTerminal(labels, values, title)
}

// PlotSeedDegradations plots the degradation ratio per run, keyed by seed.
func PlotSeedDegradations(runs []RunResult, title string) {
	labels := make([]string, len(runs))
	values := make([]float64, len(runs))
	for i, r := range runs {
		labels[i] = fmt.Sprintf("seed %d", r.Seed)
		values[i] = r.Degradation
	}
	PlotValuesTerminal(labels, values, title)
}

// PlotLayerSparsity plots the realized per-layer sparsity of one prune.
func PlotLayerSparsity(report *scoring.PruneReport, title string) {
	if report == nil {
		return
	}
	labels := make([]string, len(report.Layers))
	values := make([]float64, len(report.Layers))
	for i, l := range report.Layers {
		labels[i] = l.Name
		values[i] = l.Sparsity
	}
	PlotValuesTerminal(labels, values, title)
}

// PlotSummaries plots mean pruned perplexity per method.
func PlotSummaries(summaries []SeedSummary, title string) {
	labels := make([]string, len(summaries))
	values := make([]float64, len(summaries))
	for i, s := range summaries {
		labels[i] = s.Label
		values[i] = s.MeanPruned
	}
	PlotValuesTerminal(labels, values, title)
}
