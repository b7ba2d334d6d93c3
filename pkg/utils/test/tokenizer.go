package testutils

import (
	"strings"

	"github.com/papercomputeco/angler/pkg/tokenizer"
)

// MockTokenizer is a whitespace word tokenizer assigning incremental ids,
// stable within one instance. Ids start above the pad id.
type MockTokenizer struct {
	// Pad, when non-nil, is reported as the pad token id.
	Pad *int

	ids   map[string]int
	words map[int]string
	next  int
}

func NewMockTokenizer(pad *int) *MockTokenizer {
	return &MockTokenizer{
		Pad:   pad,
		ids:   make(map[string]int),
		words: make(map[int]string),
		next:  10,
	}
}

func (m *MockTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	out := make([]int, 0, len(fields))
	for _, word := range fields {
		id, ok := m.ids[word]
		if !ok {
			id = m.next
			m.next++
			m.ids[word] = id
			m.words[id] = word
		}
		out = append(out, id)
	}
	return out
}

func (m *MockTokenizer) Decode(ids []int) string {
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if word, ok := m.words[id]; ok {
			words = append(words, word)
		}
	}
	return strings.Join(words, " ")
}

func (m *MockTokenizer) SpecialTokenID(tok tokenizer.SpecialToken) (int, error) {
	if tok == tokenizer.TokPad && m.Pad != nil {
		return *m.Pad, nil
	}
	return 0, tokenizer.ErrUnknownSpecial
}

var _ tokenizer.Tokenizer = (*MockTokenizer)(nil)
