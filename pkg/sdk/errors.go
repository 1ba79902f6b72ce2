package artpair

import "github.com/kailas-cloud/artpair/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput            = domain.ErrInvalidInput
	ErrEmptyCorpus             = domain.ErrEmptyCorpus
	ErrNoRecipes               = domain.ErrNoRecipes
	ErrNoArtworks              = domain.ErrNoArtworks
	ErrImageDisabled           = domain.ErrImageDisabled
	ErrImageSynthesis          = domain.ErrImageSynthesis
	ErrImageServiceUnavailable = domain.ErrImageServiceUnavailable
	ErrRateLimited             = domain.ErrRateLimited
)

// SynthesisError carries the image provider's failure message.
type SynthesisError = domain.SynthesisError
