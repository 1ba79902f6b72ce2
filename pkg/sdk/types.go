package artpair

import (
	"context"

	"github.com/kailas-cloud/artpair/internal/domain/corpus"
	"github.com/kailas-cloud/artpair/internal/domain/match"
)

// Recipe is a row of the recipe table.
type Recipe = corpus.Recipe

// Artwork is a row of the artwork table.
type Artwork = corpus.Artwork

// RecipeMatch is the recipe whose description best matches the query.
// Index is the row position in the recipe table.
type RecipeMatch struct {
	Index  int
	Recipe Recipe
	Score  float64
}

// ArtworkMatch is an artwork ranked against the matched recipe's description.
type ArtworkMatch struct {
	Index   int
	Artwork Artwork
	Score   float64
}

// PairingResult is the matched recipe plus its artworks, best first.
type PairingResult struct {
	Recipe   RecipeMatch
	Artworks []ArtworkMatch
}

// Stats describes the loaded corpus.
type Stats struct {
	CorpusID string
	Recipes  int
	Artworks int
}

// GeneratedImage is a rendered image as a data URL.
type GeneratedImage struct {
	ID      string
	Prompt  string
	DataURL string
}

// ImageSynthesizer renders an image for a prompt.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt string) (Image, error)
}

// HealthChecker is optionally implemented by an ImageSynthesizer to report
// provider availability in Health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Image is raw image bytes returned by an ImageSynthesizer.
// MIMEType defaults to image/png when empty.
type Image struct {
	Data          []byte
	MIMEType      string
	RevisedPrompt string
}

func pairingFromDomain(r match.PairingResult) PairingResult {
	out := PairingResult{
		Recipe: RecipeMatch{
			Index:  r.Recipe.Index,
			Recipe: r.Recipe.Recipe,
			Score:  r.Recipe.Score,
		},
		Artworks: make([]ArtworkMatch, len(r.Artworks)),
	}
	for i, a := range r.Artworks {
		out.Artworks[i] = ArtworkMatch{Index: a.Index, Artwork: a.Artwork, Score: a.Score}
	}
	return out
}
