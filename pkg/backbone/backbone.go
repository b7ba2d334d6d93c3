// Package backbone abstracts the encoder model producing token-level
// hidden states for tokenized batches. The training loop treats the
// backbone as an opaque collaborator: forward passes in, hidden states out.
package backbone

import "context"

// Input is one collated batch handed to the encoder.
type Input struct {
	// InputIDs holds one padded token-id row per batch entry.
	InputIDs [][]int

	// AttentionMask marks real tokens with 1 and padding with 0.
	AttentionMask [][]int

	// TokenTypeIDs carries segment ids for models that use them. May be nil.
	TokenTypeIDs [][]int
}

// Output is the encoder's forward-pass result.
type Output struct {
	// HiddenStates is indexed [row][position][feature].
	HiddenStates [][][]float64
}

// Encoder runs forward passes over tokenized batches.
type Encoder interface {
	// Forward returns the final-layer hidden states for a batch.
	Forward(ctx context.Context, in Input) (Output, error)

	// Close releases any resources held by the encoder.
	Close() error
}
