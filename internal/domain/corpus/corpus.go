package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Recipe is a single row of the recipe table. Identity is its row position.
type Recipe struct {
	Name        string
	Description string
}

// Artwork is a single row of the artwork table. Identity is its row position.
type Artwork struct {
	Title    string
	Artist   string
	Style    string
	Category string
	ImageURL string
}

// Snapshot is the read-only corpus shared by all requests.
// Built once at startup; never mutated afterwards.
type Snapshot struct {
	id       string
	recipes  []Recipe
	artworks []Artwork
}

// NewSnapshot copies the given tables into an immutable snapshot.
func NewSnapshot(recipes []Recipe, artworks []Artwork) *Snapshot {
	r := make([]Recipe, len(recipes))
	copy(r, recipes)
	a := make([]Artwork, len(artworks))
	copy(a, artworks)

	return &Snapshot{
		id:       fingerprint(r, a),
		recipes:  r,
		artworks: a,
	}
}

// ID returns the content fingerprint of the snapshot.
// Two snapshots with identical rows share an ID.
func (s *Snapshot) ID() string { return s.id }

// Recipes returns the recipe table. Callers must not modify the returned slice.
func (s *Snapshot) Recipes() []Recipe { return s.recipes }

// Artworks returns the artwork table. Callers must not modify the returned slice.
func (s *Snapshot) Artworks() []Artwork { return s.artworks }

// RecipeCount returns the number of recipes.
func (s *Snapshot) RecipeCount() int { return len(s.recipes) }

// ArtworkCount returns the number of artworks.
func (s *Snapshot) ArtworkCount() int { return len(s.artworks) }

// RecipeDescriptions returns the description column in row order.
func (s *Snapshot) RecipeDescriptions() []string {
	out := make([]string, len(s.recipes))
	for i, r := range s.recipes {
		out[i] = r.Description
	}
	return out
}

// ArtworkTitles returns the title column in row order.
func (s *Snapshot) ArtworkTitles() []string {
	out := make([]string, len(s.artworks))
	for i, a := range s.artworks {
		out[i] = a.Title
	}
	return out
}

func fingerprint(recipes []Recipe, artworks []Artwork) string {
	h := sha256.New()
	writeLen(h, len(recipes))
	for _, r := range recipes {
		writeField(h, r.Name)
		writeField(h, r.Description)
	}
	writeLen(h, len(artworks))
	for _, a := range artworks {
		writeField(h, a.Title)
		writeField(h, a.Artist)
		writeField(h, a.Style)
		writeField(h, a.Category)
		writeField(h, a.ImageURL)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes s length-prefixed so adjacent fields cannot collide.
func writeField(h hash.Hash, s string) {
	writeLen(h, len(s))
	_, _ = h.Write([]byte(s))
}

func writeLen(h hash.Hash, n int) {
	_ = binary.Write(h, binary.LittleEndian, uint64(n))
}
