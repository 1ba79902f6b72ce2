package domain

import "context"

// ImageSynthesizer renders an image for a text prompt. Implementations talk to an
// external model service and may be slow or fail.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, req ImageRequest) (Image, error)
}

// HealthChecker verifies availability of an external collaborator.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ImageRequest is the prompt passed to the synthesizer unmodified.
type ImageRequest struct {
	Prompt string
}

// Image is a rendered image as returned by the synthesizer.
type Image struct {
	Data          []byte
	MIMEType      string
	RevisedPrompt string
}
