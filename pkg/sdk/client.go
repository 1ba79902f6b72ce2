package artpair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/config"
	"github.com/kailas-cloud/artpair/internal/domain"
	"github.com/kailas-cloud/artpair/internal/domain/corpus"
	"github.com/kailas-cloud/artpair/internal/domain/match"
	"github.com/kailas-cloud/artpair/internal/repository/dataset"
	healthuc "github.com/kailas-cloud/artpair/internal/usecase/health"
	"github.com/kailas-cloud/artpair/internal/usecase/imagegen"
	"github.com/kailas-cloud/artpair/internal/usecase/pairing"
)

// Internal interfaces for substitution in tests.
type pairingUseCase interface {
	Pair(ctx context.Context, query string) (match.PairingResult, error)
	Warm() error
	Stats() pairing.Stats
}

type imageUseCase interface {
	Enabled() bool
	Generate(ctx context.Context, description string) (imagegen.GeneratedImage, error)
}

// Client is the artpair SDK entry point. It is safe for concurrent use.
type Client struct {
	pairingSvc pairingUseCase
	imageSvc   imageUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New loads the corpus and prepares the similarity spaces.
// The provided context bounds corpus loading.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{artworkMatches: pairing.DefaultArtworkMatches}
	for _, o := range opts {
		o.apply(cfg)
	}

	snap, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(snap, cfg, obs)
}

func loadSnapshot(ctx context.Context, cfg *clientConfig) (*corpus.Snapshot, error) {
	if cfg.rows {
		return corpus.NewSnapshot(cfg.recipeRows, cfg.artworkRows), nil
	}
	if cfg.recipes == nil || cfg.artworks == nil {
		return nil, errors.New("artpair: both tables required (use WithRecipes and WithArtworks, or WithRows)")
	}

	// Defaults come from the server config so column names match everywhere.
	c := config.Config{Corpus: config.CorpusConfig{
		Recipes:  cfg.recipes.tableConfig(),
		Artworks: cfg.artworks.tableConfig(),
	}}
	c.ApplyDefaults()

	snap, err := dataset.Load(ctx, c.Corpus, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("artpair: load corpus: %w", err)
	}
	return snap, nil
}

func (s *Source) tableConfig() config.TableConfig {
	cols := make(map[string]string, len(s.Columns))
	for k, v := range s.Columns {
		cols[k] = v
	}
	return config.TableConfig{
		Path:    s.Path,
		Format:  s.Format,
		Table:   s.Table,
		Columns: cols,
	}
}

func wireClient(snap *corpus.Snapshot, cfg *clientConfig, obs *observer) (*Client, error) {
	pairingSvc := pairing.New(snap).WithArtworkMatches(cfg.artworkMatches)
	if err := pairingSvc.Warm(); err != nil {
		return nil, fmt.Errorf("artpair: %w", err)
	}

	tpl := config.DefaultPromptTemplate
	if cfg.promptTemplate != nil {
		tpl = *cfg.promptTemplate
	}

	var (
		synth   imagegen.Synthesizer
		checker healthuc.ImageChecker
	)
	if cfg.synth != nil {
		synth = &synthesizerAdapter{inner: cfg.synth}
		if hc, ok := cfg.synth.(HealthChecker); ok {
			checker = hc
		}
	}

	c := &Client{
		pairingSvc: pairingSvc,
		imageSvc:   imagegen.New(synth, tpl),
		healthSvc:  healthuc.New(snap, nil, checker),
		obs:        obs,
	}
	obs.loaded(c.Stats())
	return c, nil
}

// Pair finds the best recipe for query and the artworks that fit it.
func (c *Client) Pair(ctx context.Context, query string) (res PairingResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("pair", start, err) }()

	r, err := c.pairingSvc.Pair(ctx, query)
	if err != nil {
		return PairingResult{}, fmt.Errorf("pair: %w", err)
	}
	return pairingFromDomain(r), nil
}

// GenerateImage renders a photography-style image for a food description.
// Returns ErrImageDisabled when no synthesizer was configured.
func (c *Client) GenerateImage(ctx context.Context, description string) (img GeneratedImage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("generate_image", start, err) }()

	if !c.imageSvc.Enabled() {
		return GeneratedImage{}, ErrImageDisabled
	}
	g, err := c.imageSvc.Generate(ctx, description)
	if err != nil {
		return GeneratedImage{}, fmt.Errorf("generate image: %w", err)
	}
	return GeneratedImage{ID: g.ID.String(), Prompt: g.Prompt, DataURL: g.DataURL}, nil
}

// Stats reports corpus sizes and the corpus fingerprint.
func (c *Client) Stats() Stats {
	st := c.pairingSvc.Stats()
	return Stats{CorpusID: st.CorpusID, Recipes: st.Recipes, Artworks: st.Artworks}
}

// synthesizerAdapter bridges the public ImageSynthesizer to the domain interface.
type synthesizerAdapter struct {
	inner ImageSynthesizer
}

func (a *synthesizerAdapter) Synthesize(ctx context.Context, req domain.ImageRequest) (domain.Image, error) {
	img, err := a.inner.Synthesize(ctx, req.Prompt)
	if err != nil {
		return domain.Image{}, err //nolint:wrapcheck // imagegen classifies provider errors
	}
	return domain.Image{Data: img.Data, MIMEType: img.MIMEType, RevisedPrompt: img.RevisedPrompt}, nil
}
