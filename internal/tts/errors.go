package tts

import "errors"

var (
	// ErrNoStyles is returned when a style load is attempted with zero sources.
	ErrNoStyles = errors.New("no voice styles provided")

	// ErrStyleDimsMismatch is returned when styles loaded together do not
	// share the inner dimensions established by the first source.
	ErrStyleDimsMismatch = errors.New("voice style dimensions mismatch")

	// ErrStyleBatchMismatch is returned when the style batch size does not
	// match the number of texts in an inference call.
	ErrStyleBatchMismatch = errors.New("style batch does not match text batch")

	// ErrEmptyBatch is returned when an inference call receives no texts.
	ErrEmptyBatch = errors.New("empty text batch")
)
