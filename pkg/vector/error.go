package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the store.
	ErrNotFound = errors.New("document not found")

	// ErrDimensions is returned when an embedding's width disagrees with
	// the store's configured dimensions.
	ErrDimensions = errors.New("embedding dimensions mismatch")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
