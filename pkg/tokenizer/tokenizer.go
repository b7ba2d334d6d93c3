// Package tokenizer defines the text<->token-id contract the angler core
// depends on. Concrete implementations live in subpackages (tiktoken, vocab);
// the core never assumes a particular vocabulary or encoding scheme.
package tokenizer

// SpecialToken is an enum of commonly used special tokens. Different
// tokenizers map the same semantic (like padding) to different ids.
type SpecialToken int

const (
	TokPad SpecialToken = iota
	TokBeginningOfSentence
	TokEndOfSentence
	TokUnknown
)

// String returns the lowercase name of the special token.
func (s SpecialToken) String() string {
	switch s {
	case TokPad:
		return "pad"
	case TokBeginningOfSentence:
		return "bos"
	case TokEndOfSentence:
		return "eos"
	case TokUnknown:
		return "unk"
	}
	return "invalid"
}

// Tokenizer converts text to token ids and back.
type Tokenizer interface {
	// Encode converts text into a sequence of token ids. No padding is
	// applied; truncation is the caller's responsibility.
	Encode(text string) []int

	// Decode converts token ids back into text.
	Decode(ids []int) string

	// SpecialTokenID returns the id for the given special token, or
	// ErrUnknownSpecial if the tokenizer has no such token registered.
	SpecialTokenID(token SpecialToken) (int, error)
}

// TypeIDTokenizer is implemented by tokenizers that emit token type ids
// alongside token ids (BERT-style segment embeddings). Tokenizers without
// the concept simply don't implement it.
type TypeIDTokenizer interface {
	Tokenizer

	// TypeIDs returns the token type ids for an encoded sequence of length n.
	TypeIDs(n int) []int
}
