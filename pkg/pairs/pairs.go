// Package pairs converts pair records into model-ready token sequences.
//
// Each record's two texts are tokenized (optionally wrapped in a prompt
// template), concatenated into a single sequence, and tagged with segment
// ids marking which tokens belong to which text. The batch collator splits
// them back apart along the segment boundary.
package pairs

import "errors"

var (
	// ErrEmptyText is returned when a record side tokenizes to nothing.
	ErrEmptyText = errors.New("text tokenizes to empty sequence")
)

// Tokenized is one pair record after tokenization: both texts concatenated
// into a single sequence with parallel per-token arrays.
type Tokenized struct {
	// InputIDs is text1's tokens followed by text2's tokens.
	InputIDs []int

	// AttentionMask is 1 for every real token. Padding happens at collation.
	AttentionMask []int

	// TokenTypeIDs is present only when the tokenizer emits type ids.
	TokenTypeIDs []int

	// SegmentIDs is 0 for text1's tokens and 1 for text2's.
	SegmentIDs []int

	// Labels holds the record's single label.
	Labels []float64
}

// Valid checks the parallel-array invariant: input ids, attention mask and
// segment ids (and type ids when present) must all have the same length.
func (t Tokenized) Valid() bool {
	n := len(t.InputIDs)
	if len(t.AttentionMask) != n || len(t.SegmentIDs) != n {
		return false
	}
	if t.TokenTypeIDs != nil && len(t.TokenTypeIDs) != n {
		return false
	}
	return true
}
