package scoring

import "errors"

var (
	// ErrEmptyScorePool is returned when a prune is requested but no layer
	// produced importance scores, usually because no gradients were available.
	ErrEmptyScorePool = errors.New("score pool is empty, no layer produced importance scores")

	// ErrInvalidSparsity is returned for sparsity targets outside [0, 1].
	ErrInvalidSparsity = errors.New("sparsity must be within [0, 1]")

	// ErrShapeMismatch is returned when a layer's weight and gradient tensors
	// disagree on shape. This is fatal: scores would be meaningless.
	ErrShapeMismatch = errors.New("weight and gradient shapes differ")
)
