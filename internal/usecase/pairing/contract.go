package pairing

import "github.com/kailas-cloud/artpair/internal/domain/corpus"

// CorpusReader exposes the frozen corpus snapshot.
type CorpusReader interface {
	ID() string
	Recipes() []corpus.Recipe
	Artworks() []corpus.Artwork
	RecipeDescriptions() []string
	ArtworkTitles() []string
}
