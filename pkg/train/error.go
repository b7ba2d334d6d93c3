package train

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the root of all trainer configuration failures.
	ErrConfiguration = errors.New("trainer configuration error")

	// ErrBadModelPath is returned when a persisted run config names a model
	// target that cannot be used.
	ErrBadModelPath = fmt.Errorf("%w: bad model path", ErrConfiguration)

	// ErrNoBackbone is returned when a trainer is built without an encoder.
	ErrNoBackbone = fmt.Errorf("%w: backbone encoder is required", ErrConfiguration)

	// ErrNoTokenizer is returned when a trainer is built without a tokenizer.
	ErrNoTokenizer = fmt.Errorf("%w: tokenizer is required", ErrConfiguration)

	// ErrNoOptimizer is returned when Fit is called without an optimizer.
	ErrNoOptimizer = fmt.Errorf("%w: optimizer is required", ErrConfiguration)

	// ErrNoRecords is returned when an operation is given no records.
	ErrNoRecords = errors.New("no records")
)
