package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals malformed arguments (bad UTF-8, blank text, non-positive top-K).
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCorpus signals a ranking request over zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoRecipes signals that the recipe table is empty.
	ErrNoRecipes = errors.New("no recipes loaded")
	// ErrNoArtworks signals that the artwork table is empty.
	ErrNoArtworks = errors.New("no artworks loaded")

	// ErrImageDisabled signals that no image synthesis service is configured.
	ErrImageDisabled = errors.New("image synthesis disabled")
	// ErrImageSynthesis signals a failure reported by the image synthesis service.
	ErrImageSynthesis = errors.New("image synthesis failed")
	// ErrImageServiceUnavailable signals that the image service circuit is open.
	ErrImageServiceUnavailable = errors.New("image service unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// SynthesisError carries the message of an external image service failure.
// The message is part of the contract: it is surfaced to clients as-is.
type SynthesisError struct {
	Message string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: %s", ErrImageSynthesis.Error(), e.Message)
}

func (e *SynthesisError) Unwrap() error { return ErrImageSynthesis }

// NewSynthesisError creates an image synthesis error with the provider's message.
func NewSynthesisError(message string) error {
	return &SynthesisError{Message: message}
}
