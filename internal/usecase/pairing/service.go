package pairing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/artpair/internal/domain"
	"github.com/kailas-cloud/artpair/internal/domain/match"
	logpkg "github.com/kailas-cloud/artpair/internal/logger"
	"github.com/kailas-cloud/artpair/internal/metrics"
	"github.com/kailas-cloud/artpair/internal/similarity"
)

// DefaultArtworkMatches is the number of artworks returned per pairing.
const DefaultArtworkMatches = 3

const (
	columnRecipeDescription = "recipe.description"
	columnArtworkTitle      = "artwork.title"
)

// Stats describes the loaded corpus.
type Stats struct {
	CorpusID string
	Recipes  int
	Artworks int
}

// Service pairs a food description with a recipe and then with artworks.
//
// Query → best recipe by description, then that recipe's description → top
// artworks by title. The second hop deliberately uses the recipe text, not the
// raw query.
type Service struct {
	corpus         CorpusReader
	artworkMatches int
	spaces         *spaceCache
}

// New creates a pairing service over a frozen corpus.
func New(c CorpusReader) *Service {
	return &Service{
		corpus:         c,
		artworkMatches: DefaultArtworkMatches,
		spaces:         newSpaceCache(),
	}
}

// WithArtworkMatches overrides how many artworks are returned.
func (s *Service) WithArtworkMatches(n int) *Service {
	if n > 0 {
		s.artworkMatches = n
	}
	return s
}

// Pair runs the two-hop match for query.
func (s *Service) Pair(ctx context.Context, query string) (match.PairingResult, error) {
	start := time.Now()
	res, err := s.pair(ctx, query)

	metrics.PairingDuration.Observe(time.Since(start).Seconds())
	metrics.PairingsTotal.WithLabelValues(pairingStatus(err)).Inc()
	return res, err
}

func (s *Service) pair(ctx context.Context, query string) (match.PairingResult, error) {
	log := logpkg.FromContext(ctx)

	recipes := s.corpus.Recipes()
	if len(recipes) == 0 {
		return match.PairingResult{}, domain.ErrNoRecipes
	}

	recipeSpace, err := s.space(columnRecipeDescription, s.corpus.RecipeDescriptions)
	if err != nil {
		return match.PairingResult{}, fmt.Errorf("build recipe space: %w", err)
	}
	best, err := recipeSpace.Rank(query, 1)
	if err != nil {
		return match.PairingResult{}, fmt.Errorf("rank recipes: %w", err)
	}
	recipe := recipes[best[0].Index]

	artworks := s.corpus.Artworks()
	if len(artworks) == 0 {
		return match.PairingResult{}, domain.ErrNoArtworks
	}

	artSpace, err := s.space(columnArtworkTitle, s.corpus.ArtworkTitles)
	if err != nil {
		return match.PairingResult{}, fmt.Errorf("build artwork space: %w", err)
	}
	ranked, err := artSpace.Rank(recipe.Description, s.artworkMatches)
	if err != nil {
		return match.PairingResult{}, fmt.Errorf("rank artworks: %w", err)
	}

	result := match.PairingResult{
		Recipe: match.RecipeMatch{
			Index:  best[0].Index,
			Recipe: recipe,
			Score:  best[0].Score,
		},
		Artworks: make([]match.ArtworkMatch, len(ranked)),
	}
	for i, m := range ranked {
		result.Artworks[i] = match.ArtworkMatch{
			Index:   m.Index,
			Artwork: artworks[m.Index],
			Score:   m.Score,
		}
	}

	log.Debug("pairing complete",
		zap.String("recipe", recipe.Name),
		zap.Float64("recipe_score", best[0].Score),
		zap.Int("artworks", len(result.Artworks)),
	)
	return result, nil
}

// Warm builds both document spaces ahead of the first request.
// Empty tables are skipped; Pair reports them per call.
func (s *Service) Warm() error {
	if len(s.corpus.Recipes()) > 0 {
		if _, err := s.space(columnRecipeDescription, s.corpus.RecipeDescriptions); err != nil {
			return fmt.Errorf("warm recipe space: %w", err)
		}
	}
	if len(s.corpus.Artworks()) > 0 {
		if _, err := s.space(columnArtworkTitle, s.corpus.ArtworkTitles); err != nil {
			return fmt.Errorf("warm artwork space: %w", err)
		}
	}
	return nil
}

// Stats reports corpus sizes and identity.
func (s *Service) Stats() Stats {
	return Stats{
		CorpusID: s.corpus.ID(),
		Recipes:  len(s.corpus.Recipes()),
		Artworks: len(s.corpus.Artworks()),
	}
}

func (s *Service) space(column string, documents func() []string) (*similarity.Space, error) {
	return s.spaces.get(s.corpus.ID()+":"+column, func() (*similarity.Space, error) {
		return similarity.NewSpace(documents())
	})
}

func pairingStatus(err error) string {
	if err == nil {
		return "success"
	}
	switch {
	case errors.Is(err, domain.ErrNoRecipes):
		return "no_recipes"
	case errors.Is(err, domain.ErrNoArtworks):
		return "no_artworks"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

// spaceCache holds document spaces keyed by corpus identity and column.
// Entries are immutable once stored; singleflight collapses concurrent builds.
type spaceCache struct {
	mu     sync.RWMutex
	spaces map[string]*similarity.Space
	group  singleflight.Group
	builds int
}

func newSpaceCache() *spaceCache {
	return &spaceCache{spaces: make(map[string]*similarity.Space)}
}

func (c *spaceCache) get(key string, build func() (*similarity.Space, error)) (*similarity.Space, error) {
	c.mu.RLock()
	sp, ok := c.spaces[key]
	c.mu.RUnlock()
	if ok {
		metrics.SpaceCacheTotal.WithLabelValues("hit").Inc()
		return sp, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.spaces[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		metrics.SpaceCacheTotal.WithLabelValues("miss").Inc()
		built, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.spaces[key] = built
		c.builds++
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // caller wraps with column context
	}
	return v.(*similarity.Space), nil
}

func (c *spaceCache) buildCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}
