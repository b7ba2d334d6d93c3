// Package batch collates tokenized pairs into padded, model-ready batches.
//
// Each tokenized pair is split back into its two texts along the segment
// boundary, producing two rows per record: record i's text1 at row 2i and
// its text2 at row 2i+1. Rows are padded to a common length and a
// duplicate-text similarity mask is built over exact token sequences.
package batch

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrLengthMismatch indicates a tokenized pair whose parallel per-token
	// arrays disagree in length. This is an upstream tokenization bug; the
	// step must stop rather than silently corrupt the batch.
	ErrLengthMismatch = errors.New("per-token arrays have mismatched lengths")

	// ErrMissingSegment indicates a tokenized pair with no text2 segment.
	ErrMissingSegment = errors.New("tokenized pair has no second segment")

	// ErrMixedTypeIDs indicates a batch mixing pairs with and without token
	// type ids. The tokenizer either emits them for every pair or for none.
	ErrMixedTypeIDs = errors.New("batch mixes pairs with and without token type ids")

	// ErrEmptyBatch is returned when collating zero pairs.
	ErrEmptyBatch = errors.New("empty batch")
)

// Batch is 2N padded rows built from N tokenized pairs.
type Batch struct {
	// InputIDs, AttentionMask and TokenTypeIDs are 2N rows padded to a
	// common length. TokenTypeIDs is nil when the pairs carry none.
	InputIDs      [][]int
	AttentionMask [][]int
	TokenTypeIDs  [][]int

	// Labels holds one label per row (the 2N x 1 column); both rows of a
	// record carry the record's label.
	Labels []float64

	// SimilarityMask is a 2N x 2N binary matrix with 1 where two distinct
	// rows hold token-identical text. Nil when not computed. Symmetric,
	// zero diagonal.
	SimilarityMask *mat.Dense
}

// Rows returns the number of rows in the batch.
func (b *Batch) Rows() int {
	return len(b.InputIDs)
}
