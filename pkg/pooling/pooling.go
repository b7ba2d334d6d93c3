// Package pooling reduces per-token hidden states to one embedding per row.
package pooling

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrConfiguration is the root of all pooling configuration failures.
	ErrConfiguration = errors.New("pooling configuration error")

	// ErrUnknownStrategy is returned for a strategy outside the closed set.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown pooling strategy", ErrConfiguration)

	// ErrNoPadToken is returned when causal pooling is asked to handle a
	// batch larger than one row without a pad token id to locate sequence
	// ends with.
	ErrNoPadToken = fmt.Errorf("%w: no pad token id for batch size > 1", ErrConfiguration)

	// ErrEmptyHidden is returned when a row has no token hidden states.
	ErrEmptyHidden = errors.New("row has no hidden states")
)

// Strategy selects how token vectors collapse into one embedding.
type Strategy string

const (
	// CLS takes the first token's vector.
	CLS Strategy = "cls"

	// CLSAvg averages the first token's vector with the mean over all tokens.
	CLSAvg Strategy = "cls_avg"

	// Last takes the last token's vector.
	Last Strategy = "last"

	// Avg takes the mean over all tokens. Padding tokens are included;
	// callers padding to heterogeneous lengths should account for that.
	Avg Strategy = "avg"

	// Max takes the element-wise max over tokens.
	Max Strategy = "max"
)

// ParseStrategy validates a config-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case CLS, CLSAvg, Last, Avg, Max:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Pooler pools hidden states per the configured strategy, or per the causal
// last-token rule for decoder-only backbones.
type Pooler struct {
	strategy Strategy

	causal bool
	padID  int
	hasPad bool
}

// Option configures a Pooler.
type Option func(*Pooler)

// WithCausal switches to causal last-non-pad-token pooling, locating each
// row's sequence end via the given pad token id.
func WithCausal(padID int) Option {
	return func(p *Pooler) {
		p.causal = true
		p.padID = padID
		p.hasPad = true
	}
}

// WithCausalNoPad switches to causal pooling without a pad token id. Only
// single-row batches can be pooled; larger batches fail.
func WithCausalNoPad() Option {
	return func(p *Pooler) {
		p.causal = true
		p.hasPad = false
	}
}

// New creates a Pooler for the given strategy.
func New(strategy Strategy, opts ...Option) (*Pooler, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	p := &Pooler{strategy: strategy}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Pool reduces hidden states [rows][tokens][dim] to a rows x dim embedding
// matrix. inputIDs is consulted only by causal pooling, to locate each row's
// last non-padding token.
func (p *Pooler) Pool(hidden [][][]float64, inputIDs [][]int) (*mat.Dense, error) {
	if len(hidden) == 0 {
		return nil, ErrEmptyHidden
	}

	for _, tokens := range hidden {
		if len(tokens) == 0 {
			return nil, ErrEmptyHidden
		}
	}

	if p.causal {
		return p.poolCausal(hidden, inputIDs)
	}

	dim := len(hidden[0][0])
	out := mat.NewDense(len(hidden), dim, nil)

	for i, tokens := range hidden {
		var vec []float64
		switch p.strategy {
		case CLS:
			vec = tokens[0]
		case CLSAvg:
			avg := meanVector(tokens)
			vec = make([]float64, dim)
			for d := 0; d < dim; d++ {
				vec[d] = (tokens[0][d] + avg[d]) / 2.0
			}
		case Last:
			vec = tokens[len(tokens)-1]
		case Avg:
			vec = meanVector(tokens)
		case Max:
			vec = maxVector(tokens)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, p.strategy)
		}

		out.SetRow(i, vec)
	}

	return out, nil
}

// poolCausal extracts, per row, the hidden state at the last non-padding
// position. Without a pad id the final position is used, which is only
// meaningful for a single unpadded row. Pool has already rejected empty rows.
func (p *Pooler) poolCausal(hidden [][][]float64, inputIDs [][]int) (*mat.Dense, error) {
	if !p.hasPad && len(hidden) > 1 {
		return nil, ErrNoPadToken
	}

	dim := len(hidden[0][0])
	out := mat.NewDense(len(hidden), dim, nil)

	for i, tokens := range hidden {
		pos := len(tokens) - 1
		if p.hasPad && i < len(inputIDs) {
			if pad := indexOf(inputIDs[i], p.padID); pad > 0 {
				pos = pad - 1
			}
		}
		out.SetRow(i, tokens[pos])
	}

	return out, nil
}

func meanVector(tokens [][]float64) []float64 {
	dim := len(tokens[0])
	out := make([]float64, dim)
	for _, tok := range tokens {
		for d := 0; d < dim; d++ {
			out[d] += tok[d]
		}
	}
	for d := 0; d < dim; d++ {
		out[d] /= float64(len(tokens))
	}
	return out
}

func maxVector(tokens [][]float64) []float64 {
	dim := len(tokens[0])
	out := make([]float64, dim)
	copy(out, tokens[0])
	for _, tok := range tokens[1:] {
		for d := 0; d < dim; d++ {
			if tok[d] > out[d] {
				out[d] = tok[d]
			}
		}
	}
	return out
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
