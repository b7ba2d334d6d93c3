package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/angler/pkg/backbone"
)

// MockBackbone is a test encoder that synthesizes deterministic hidden
// states: each token's vector is a one-hot of its id modulo Dim. Identical
// token sequences therefore pool to identical embeddings.
type MockBackbone struct {
	// Dim is the hidden state width. Defaults to 4 when zero.
	Dim int

	// ForwardFn, when set, overrides the synthesized hidden states.
	ForwardFn func(ctx context.Context, in backbone.Input) (backbone.Output, error)

	// Calls accumulates every Forward input.
	Calls []backbone.Input

	// FailForward causes Forward to return an error.
	FailForward bool
}

func NewMockBackbone(dim int) *MockBackbone {
	return &MockBackbone{Dim: dim}
}

func (m *MockBackbone) Forward(ctx context.Context, in backbone.Input) (backbone.Output, error) {
	m.Calls = append(m.Calls, in)

	if m.FailForward {
		return backbone.Output{}, fmt.Errorf("mock forward failure")
	}
	if m.ForwardFn != nil {
		return m.ForwardFn(ctx, in)
	}

	dim := m.Dim
	if dim == 0 {
		dim = 4
	}

	hidden := make([][][]float64, len(in.InputIDs))
	for i, row := range in.InputIDs {
		hidden[i] = make([][]float64, len(row))
		for j, id := range row {
			vec := make([]float64, dim)
			vec[((id%dim)+dim)%dim] = 1.0
			hidden[i][j] = vec
		}
	}

	return backbone.Output{HiddenStates: hidden}, nil
}

func (m *MockBackbone) Close() error {
	return nil
}

var _ backbone.Encoder = (*MockBackbone)(nil)
