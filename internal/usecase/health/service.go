package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; pairing still works.
	Degraded Status = "degraded"
	// Unhealthy indicates pairing cannot be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentRecipes  = "recipes"
	ComponentArtworks = "artworks"
	ComponentCache    = "cache"
	ComponentImage    = "image"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus CorpusSizer
	cache  DBPinger
	image  ImageChecker
}

// New creates a Service. cache and image can be nil.
func New(corpus CorpusSizer, cache DBPinger, image ImageChecker) *Service {
	return &Service{corpus: corpus, cache: cache, image: image}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	checks[ComponentRecipes] = result(s.corpus.RecipeCount() > 0)
	checks[ComponentArtworks] = result(s.corpus.ArtworkCount() > 0)
	if checks[ComponentRecipes] == CheckError || checks[ComponentArtworks] == CheckError {
		status = Unhealthy
	}

	if s.cache != nil {
		checks[ComponentCache] = result(s.cache.Ping(ctx) == nil)
	}
	if s.image != nil {
		checks[ComponentImage] = result(s.image.HealthCheck(ctx) == nil)
	}

	if status == Healthy && (checks[ComponentCache] == CheckError || checks[ComponentImage] == CheckError) {
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
