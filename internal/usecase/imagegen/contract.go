package imagegen

import (
	"context"

	"github.com/kailas-cloud/artpair/internal/domain"
)

// Synthesizer renders images from prompts.
type Synthesizer interface {
	Synthesize(ctx context.Context, req domain.ImageRequest) (domain.Image, error)
}
