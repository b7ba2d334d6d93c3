package httpenc

import "errors"

var (
	// ErrForward is returned when a remote forward pass fails.
	ErrForward = errors.New("forward pass failed")

	// ErrStep is returned when a remote optimizer step fails.
	ErrStep = errors.New("optimizer step failed")
)
