// Package vocab implements pkg/tokenizer with a word-level vocabulary.
// Tokens are whitespace-separated words; the vocabulary is a JSON array of
// tokens, loadable from disk. It is exact round-trip (decode of an encode
// reproduces the token text), which makes it suitable for offline runs and
// deterministic tests.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/papercomputeco/angler/pkg/tokenizer"
)

const (
	padToken = "[PAD]"
	unkToken = "[UNK]"
)

// Tokenizer is a word-level tokenizer over a fixed vocabulary.
type Tokenizer struct {
	tokenToID map[string]int
	idToToken []string
	padID     int
	unkID     int
}

// New builds a tokenizer from the given words. Pad and unknown tokens are
// prepended, so word ids start at 2.
func New(words []string) *Tokenizer {
	t := &Tokenizer{
		tokenToID: make(map[string]int, len(words)+2),
	}

	add := func(tok string) int {
		if id, ok := t.tokenToID[tok]; ok {
			return id
		}
		id := len(t.idToToken)
		t.tokenToID[tok] = id
		t.idToToken = append(t.idToToken, tok)
		return id
	}

	t.padID = add(padToken)
	t.unkID = add(unkToken)
	for _, w := range words {
		add(w)
	}

	return t
}

// Load reads a vocabulary from a JSON file holding an array of tokens.
func Load(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocab file: %w", err)
	}

	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parsing vocab file %s: %w", path, err)
	}

	return New(words), nil
}

// Encode splits text on whitespace and maps each word to its id. Words
// outside the vocabulary map to the unknown token.
func (t *Tokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		if id, ok := t.tokenToID[f]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, t.unkID)
		}
	}
	return ids
}

// Decode joins the tokens for the given ids with single spaces.
func (t *Tokenizer) Decode(ids []int) string {
	toks := make([]string, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(t.idToToken) {
			toks = append(toks, t.idToToken[id])
		} else {
			toks = append(toks, unkToken)
		}
	}
	return strings.Join(toks, " ")
}

// SpecialTokenID resolves pad and unknown; there are no BOS/EOS tokens.
func (t *Tokenizer) SpecialTokenID(token tokenizer.SpecialToken) (int, error) {
	switch token {
	case tokenizer.TokPad:
		return t.padID, nil
	case tokenizer.TokUnknown:
		return t.unkID, nil
	}
	return 0, fmt.Errorf("%w: %s", tokenizer.ErrUnknownSpecial, token)
}

// TypeIDs returns all-zero token type ids, matching single-segment encoders.
func (t *Tokenizer) TypeIDs(n int) []int {
	return make([]int, n)
}

// Len returns the vocabulary size.
func (t *Tokenizer) Len() int {
	return len(t.idToToken)
}

var _ tokenizer.TypeIDTokenizer = (*Tokenizer)(nil)
