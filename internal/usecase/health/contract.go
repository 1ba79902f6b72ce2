package health

import "context"

// CorpusSizer reports the loaded table sizes.
type CorpusSizer interface {
	RecipeCount() int
	ArtworkCount() int
}

// DBPinger checks cache availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ImageChecker checks image provider availability.
type ImageChecker interface {
	HealthCheck(ctx context.Context) error
}
