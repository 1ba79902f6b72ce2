package artpair

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Source points at one table on disk.
// Format is csv, parquet or sqlite; empty means detect from the file extension.
// Columns maps logical fields (name, description, title, artist, style,
// category, image_url) to source column names; unset fields keep the defaults.
type Source struct {
	Path    string
	Format  string
	Table   string
	Columns map[string]string
}

type clientConfig struct {
	recipes  *Source
	artworks *Source

	rows        bool
	recipeRows  []Recipe
	artworkRows []Artwork

	artworkMatches int

	synth          ImageSynthesizer
	promptTemplate *string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRecipes loads the recipe table from src.
func WithRecipes(src Source) Option {
	return optionFunc(func(c *clientConfig) {
		c.recipes = &src
	})
}

// WithArtworks loads the artwork table from src.
func WithArtworks(src Source) Option {
	return optionFunc(func(c *clientConfig) {
		c.artworks = &src
	})
}

// WithRows uses in-memory tables instead of files. Rows are copied.
func WithRows(recipes []Recipe, artworks []Artwork) Option {
	return optionFunc(func(c *clientConfig) {
		c.rows = true
		c.recipeRows = recipes
		c.artworkRows = artworks
	})
}

// WithArtworkMatches sets how many artworks Pair returns. Default: 3.
func WithArtworkMatches(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.artworkMatches = n
	})
}

// WithImageSynthesizer enables GenerateImage.
func WithImageSynthesizer(s ImageSynthesizer) Option {
	return optionFunc(func(c *clientConfig) {
		c.synth = s
	})
}

// WithPromptTemplate overrides the image prompt template. It must contain one
// %s; an empty template sends the description unchanged.
func WithPromptTemplate(tpl string) Option {
	return optionFunc(func(c *clientConfig) {
		c.promptTemplate = &tpl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
