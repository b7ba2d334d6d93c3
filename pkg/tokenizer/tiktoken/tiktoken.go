// Package tiktoken implements pkg/tokenizer against OpenAI-style BPE
// encodings via pkoukk/tiktoken-go.
package tiktoken

import (
	"fmt"

	tkt "github.com/pkoukk/tiktoken-go"

	"github.com/papercomputeco/angler/pkg/tokenizer"
)

const (
	// DefaultEncoding is the BPE encoding used when none is configured.
	DefaultEncoding = "cl100k_base"

	endOfText = "<|endoftext|>"
)

// Config holds configuration for the tiktoken tokenizer.
type Config struct {
	// Encoding is the tiktoken encoding name (e.g. "cl100k_base", "o200k_base").
	// Defaults to DefaultEncoding if empty.
	Encoding string

	// PadID designates a pad token id. BPE encodings have no native pad
	// token, so batched padding needs one assigned explicitly.
	PadID *int
}

// Tokenizer wraps a tiktoken BPE encoding.
type Tokenizer struct {
	enc    *tkt.Tiktoken
	eotID  int
	padID  int
	hasPad bool
}

// New creates a tokenizer for the configured encoding.
func New(cfg Config) (*Tokenizer, error) {
	name := cfg.Encoding
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := tkt.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", name, err)
	}

	// Resolve the end-of-text id by encoding the special token itself.
	eot := enc.Encode(endOfText, []string{"all"}, nil)

	t := &Tokenizer{enc: enc}
	if len(eot) == 1 {
		t.eotID = eot[0]
	} else {
		t.eotID = -1
	}
	if cfg.PadID != nil {
		t.padID = *cfg.PadID
		t.hasPad = true
	}

	return t, nil
}

// Encode converts text into token ids.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts token ids back into text.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}

// SpecialTokenID maps special tokens onto the encoding. Only pad (when
// configured) and end-of-text are available for BPE encodings.
func (t *Tokenizer) SpecialTokenID(token tokenizer.SpecialToken) (int, error) {
	switch token {
	case tokenizer.TokPad:
		if t.hasPad {
			return t.padID, nil
		}
	case tokenizer.TokEndOfSentence:
		if t.eotID >= 0 {
			return t.eotID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", tokenizer.ErrUnknownSpecial, token)
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)
