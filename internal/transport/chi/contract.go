package chi

import (
	"context"

	"github.com/kailas-cloud/artpair/internal/domain/match"
	healthuc "github.com/kailas-cloud/artpair/internal/usecase/health"
	"github.com/kailas-cloud/artpair/internal/usecase/imagegen"
)

// Pairer runs the recipe and artwork match for a food description.
type Pairer interface {
	Pair(ctx context.Context, query string) (match.PairingResult, error)
}

// ImageGenerator renders a food photograph for a description.
type ImageGenerator interface {
	Generate(ctx context.Context, description string) (imagegen.GeneratedImage, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
