// Package tokenizerutils is the tokenizer utility package
package tokenizerutils

import (
	"fmt"

	"github.com/papercomputeco/angler/pkg/tokenizer"
	"github.com/papercomputeco/angler/pkg/tokenizer/tiktoken"
	"github.com/papercomputeco/angler/pkg/tokenizer/vocab"
)

type NewTokenizerOpts struct {
	Provider  string
	Encoding  string
	VocabPath string

	// PadTokenID assigns a pad id for providers without one. Negative
	// means unset.
	PadTokenID int
}

func NewTokenizer(o *NewTokenizerOpts) (tokenizer.Tokenizer, error) {
	switch o.Provider {
	case "tiktoken":
		cfg := tiktoken.Config{Encoding: o.Encoding}
		if o.PadTokenID >= 0 {
			pad := o.PadTokenID
			cfg.PadID = &pad
		}
		return tiktoken.New(cfg)
	case "vocab":
		return vocab.Load(o.VocabPath)
	default:
		return nil, fmt.Errorf("unsupported tokenizer provider: %s", o.Provider)
	}
}
