// Package loss implements the composite angular-similarity training
// objective: a cosine ranking term, an in-batch negative term, and an
// angle-difference term, independently weighted and independently skipped
// when their weight is zero.
//
// All terms operate on a batch of 2N row embeddings laid out by the
// collator: row 2i holds record i's text1, row 2i+1 its text2, and both
// rows carry the record's label.
package loss

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrOddDimension is returned when the angle term is asked to split
	// embeddings of odd width into complex halves.
	ErrOddDimension = errors.New("embedding dimension must be even for the angle term")

	// ErrShapeMismatch is returned when labels and embeddings disagree on
	// the number of rows, or the row count is odd.
	ErrShapeMismatch = errors.New("labels and embeddings row counts disagree")
)

// Config holds the loss weights and temperatures.
type Config struct {
	// W1, W2 and W3 weight the cosine, in-batch negative and angle terms.
	// A zero weight skips its term entirely.
	W1 float64
	W2 float64
	W3 float64

	// CosineTau, IBNTau and AngleTau are the temperatures sharpening each
	// term's scores before exponentiation.
	CosineTau float64
	IBNTau    float64
	AngleTau  float64

	// NegativeWeight, when positive, adds a constant bonus to the
	// similarity logits of purely-negative row pairings, down-ranking
	// them further in the in-batch negative term.
	NegativeWeight float64
}

// DefaultConfig returns the standard weights and temperatures.
func DefaultConfig() Config {
	return Config{
		W1:        1.0,
		W2:        1.0,
		W3:        1.0,
		CosineTau: 20.0,
		IBNTau:    20.0,
		AngleTau:  1.0,
	}
}

// Loss computes the weighted composite objective.
type Loss struct {
	cfg Config
}

// New creates a Loss with the given config.
func New(cfg Config) *Loss {
	return &Loss{cfg: cfg}
}

// Compute returns the scalar composite loss for a batch. labels holds one
// label per row (2N entries); emb is the 2N x d embedding matrix;
// simMask is the optional duplicate-text mask from collation (may be nil).
func (l *Loss) Compute(labels []float64, emb *mat.Dense, simMask *mat.Dense) (float64, error) {
	rows, dim := emb.Dims()
	if len(labels) != rows || rows%2 != 0 {
		return 0, fmt.Errorf("%w: %d labels, %d rows", ErrShapeMismatch, len(labels), rows)
	}
	if l.cfg.W3 > 0 && dim%2 != 0 {
		return 0, fmt.Errorf("%w: dim %d", ErrOddDimension, dim)
	}

	total := 0.0
	if l.cfg.W1 > 0 {
		total += l.cfg.W1 * Cosine(labels, emb, l.cfg.CosineTau)
	}
	if l.cfg.W2 > 0 {
		total += l.cfg.W2 * InBatchNegative(labels, emb, l.cfg.IBNTau, simMask, l.cfg.NegativeWeight)
	}
	if l.cfg.W3 > 0 {
		total += l.cfg.W3 * Angle(labels, emb, l.cfg.AngleTau)
	}

	return total, nil
}
