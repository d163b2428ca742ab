// Package scoring estimates per-weight importance in a causal language model
// and prunes the least important weights to a target sparsity.
package scoring

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// LinearLayer is a named dense layer exposed by the model under pruning.
// Weight returns the live tensor; Prune zeroes entries of it in place.
// Grad is nil until a backward pass has populated it.
type LinearLayer interface {
	Name() string
	Weight() *mat.Dense
	Grad() *mat.Dense
}

// Network is the model capability the session consumes. Linears returns the
// prunable layers in a stable order; BackwardPass runs one forward/backward
// over a calibration batch and returns the mean loss. Positions whose label
// equals IgnoreLabel are excluded from the loss.
type Network interface {
	Linears() []LinearLayer
	ZeroGrad()
	BackwardPass(inputIDs, labels [][]int) (float64, error)
}

// LayerScore holds the fused importance tensor of one layer.
type LayerScore struct {
	Name  string
	Fused *mat.Dense
}

// LayerReport summarizes the prune outcome for one layer.
type LayerReport struct {
	Name     string  `json:"name"`
	Kept     int     `json:"kept"`
	Total    int     `json:"total"`
	Sparsity float64 `json:"sparsity"`
}

// PruneReport summarizes one prune over the whole network. Kept can exceed
// KeepTarget when scores tie at the threshold.
type PruneReport struct {
	Threshold  float64       `json:"threshold"`
	KeepTarget int           `json:"keepTarget"`
	Kept       int           `json:"kept"`
	Total      int           `json:"total"`
	Sparsity   float64       `json:"sparsity"`
	Layers     []LayerReport `json:"layers"`
}

// Session scores a network once and prunes it once. Construct a fresh session
// per cycle; layer scores and the resolved fusion triple never leak across
// cycles.
type Session struct {
	net    Network
	policy *fusionPolicy
	rng    *rand.Rand

	bits   int
	fusion FusionWeights
	jitter float64

	scores []LayerScore
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithFusionWeights fixes the fusion triple, or requests adaptive resolution
// when given the sentinel triple from AdaptiveFusion.
func WithFusionWeights(w FusionWeights) SessionOption {
	return func(s *Session) {
		s.fusion = w
	}
}

// WithBits sets the bit width assumed by the quantization-error estimator.
func WithBits(bits int) SessionOption {
	return func(s *Session) {
		s.bits = bits
	}
}

// WithJitter sets the stddev of the noise added to adaptive fusion weights.
func WithJitter(sigma float64) SessionOption {
	return func(s *Session) {
		s.jitter = sigma
	}
}

// WithRand sets the rng driving adaptive fusion jitter. Sessions sharing a
// seed resolve identical triples and therefore identical masks.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *Session) {
		s.rng = rng
	}
}

// NewSession binds a session to the network it will prune. Defaults: adaptive
// fusion, 8-bit quantization, jitter 0.01, rng seeded with DefaultSeed.
func NewSession(net Network, opts ...SessionOption) *Session {
	s := &Session{
		net:    net,
		bits:   DefaultBits,
		fusion: AdaptiveFusion(),
		jitter: DefaultJitterSigma,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(DefaultSeed, DefaultSeed))
	}
	s.policy = newFusionPolicy(s.fusion, s.jitter)
	return s
}

// Score runs one forward/backward over the calibration batch and computes the
// fused importance tensor of every linear layer that received a gradient.
// Returns the calibration loss.
func (s *Session) Score(inputIDs, labels [][]int) (float64, error) {
	s.net.ZeroGrad()
	loss, err := s.net.BackwardPass(inputIDs, labels)
	if err != nil {
		return 0, fmt.Errorf("backward pass: %w", err)
	}

	s.scores = s.scores[:0]
	for _, layer := range s.net.Linears() {
		g := layer.Grad()
		if g == nil {
			log.Debug().Msgf("layer %s has no gradient, skipping", layer.Name())
			continue
		}
		w := layer.Weight()
		wr, wc := w.Dims()
		gr, gc := g.Dims()
		if wr != gr || wc != gc {
			return 0, fmt.Errorf("%w: layer %s weight %dx%d grad %dx%d",
				ErrShapeMismatch, layer.Name(), wr, wc, gr, gc)
		}

		quant := Normalize(QuantizationError(w, s.bits))
		move := Normalize(Movement(g))
		curv := Normalize(Curvature(w, g))

		fw := s.policy.resolve(quant, move, curv, s.rng)

		fused := zerosLike(w)
		fd := fused.RawMatrix().Data
		qd := quant.RawMatrix().Data
		md := move.RawMatrix().Data
		cd := curv.RawMatrix().Data
		for i := range fd {
			fd[i] = fw.Alpha*qd[i] + fw.Beta*md[i] + fw.Gamma*cd[i]
		}

		s.scores = append(s.scores, LayerScore{Name: layer.Name(), Fused: fused})
		log.Debug().Msgf("scored layer %s (%dx%d)", layer.Name(), wr, wc)
	}
	return loss, nil
}

// Scores returns the per-layer fused score tensors in network order.
func (s *Session) Scores() []LayerScore {
	return s.scores
}

// Weights returns the fusion triple in effect. In adaptive mode it is only
// meaningful after Score has resolved it.
func (s *Session) Weights() FusionWeights {
	return s.policy.weights
}

// Resolved reports whether the fusion triple has been fixed.
func (s *Session) Resolved() bool {
	return s.policy.resolved
}

// Prune pools every fused score, finds the global threshold keeping the top
// (1-sparsity) fraction, and zeroes all weights scoring below it in place.
// Ties at the threshold are kept, so the realized keep count can exceed the
// target.
func (s *Session) Prune(sparsity float64) (*PruneReport, error) {
	if sparsity < 0 || sparsity > 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidSparsity, sparsity)
	}

	total := 0
	for _, ls := range s.scores {
		r, c := ls.Fused.Dims()
		total += r * c
	}
	if total == 0 {
		return nil, ErrEmptyScorePool
	}

	pool := make([]float64, 0, total)
	for _, ls := range s.scores {
		pool = append(pool, ls.Fused.RawMatrix().Data...)
	}

	keep := int((1 - sparsity) * float64(total))
	threshold := kthLargest(pool, keep)

	report := &PruneReport{Threshold: threshold, KeepTarget: keep, Total: total}
	for _, layer := range s.net.Linears() {
		fused := s.fusedFor(layer.Name())
		if fused == nil {
			continue
		}
		w := layer.Weight()
		wd := w.RawMatrix().Data
		kept := 0
		for i, score := range fused.RawMatrix().Data {
			if score >= threshold {
				kept++
			} else {
				wd[i] = 0
			}
		}
		r, c := w.Dims()
		n := r * c
		report.Layers = append(report.Layers, LayerReport{
			Name:     layer.Name(),
			Kept:     kept,
			Total:    n,
			Sparsity: 1 - float64(kept)/float64(n),
		})
		report.Kept += kept
	}
	report.Sparsity = 1 - float64(report.Kept)/float64(report.Total)

	log.Info().Msgf("pruned at threshold %.6f: kept %d of %d weights (target %d)",
		threshold, report.Kept, report.Total, keep)
	return report, nil
}

func (s *Session) fusedFor(name string) *mat.Dense {
	for _, ls := range s.scores {
		if ls.Name == name {
			return ls.Fused
		}
	}
	return nil
}

// kthLargest returns the k-th largest value of pool. k == 0 degenerates to
// the maximum, so a full-sparsity prune keeps only maximal ties instead of
// failing; k == len(pool) degenerates to the minimum and keeps everything.
func kthLargest(pool []float64, k int) float64 {
	sorted := make([]float64, len(pool))
	copy(sorted, pool)
	slices.Sort(sorted)
	if k <= 0 {
		return sorted[len(sorted)-1]
	}
	return sorted[len(sorted)-k]
}
