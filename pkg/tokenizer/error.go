package tokenizer

import "errors"

var (
	// ErrUnknownSpecial is returned when a special token has no id registered.
	ErrUnknownSpecial = errors.New("special token not registered")

	// ErrUnknownToken is returned when text contains a token outside the vocabulary.
	ErrUnknownToken = errors.New("token not in vocabulary")
)
