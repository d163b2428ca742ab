package scoring

const (
	// DefaultBits is the bit width assumed by the quantization-error estimator.
	DefaultBits = 8

	// DefaultSparsity is the fraction of weights removed when none is given.
	DefaultSparsity = 0.5

	// DefaultJitterSigma is the stddev of the noise added to adaptive fusion weights.
	DefaultJitterSigma = 0.01

	// DefaultSeed seeds the session rng when the caller does not supply one.
	DefaultSeed = 42

	// AdaptiveSentinel marks a fusion weight as "derive from metric dispersion".
	AdaptiveSentinel = -1.0

	// IgnoreLabel marks a label position that is excluded from the loss.
	IgnoreLabel = -100
)

const (
	minFusionWeight = 0.01
	epsNorm         = 1e-8
	minQuantScale   = 1e-9
	minCurvatureDen = 1e-6
)
