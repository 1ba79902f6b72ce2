package match

import "github.com/kailas-cloud/artpair/internal/domain/corpus"

// RecipeMatch is the best recipe for a query.
type RecipeMatch struct {
	Index  int
	Recipe corpus.Recipe
	Score  float64
}

// ArtworkMatch is a ranked artwork for a recipe.
type ArtworkMatch struct {
	Index   int
	Artwork corpus.Artwork
	Score   float64
}

// PairingResult is the outcome of a successful pairing: the winning recipe and its
// artworks, descending by score with ties in row order.
type PairingResult struct {
	Recipe   RecipeMatch
	Artworks []ArtworkMatch
}
