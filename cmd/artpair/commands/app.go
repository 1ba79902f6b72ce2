package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/config"
	"github.com/kailas-cloud/artpair/internal/db"
	dbRedis "github.com/kailas-cloud/artpair/internal/db/redis"
	"github.com/kailas-cloud/artpair/internal/domain/corpus"
	"github.com/kailas-cloud/artpair/internal/metrics"
	"github.com/kailas-cloud/artpair/internal/repository/dataset"
	"github.com/kailas-cloud/artpair/internal/repository/imgcache"
	openaiImg "github.com/kailas-cloud/artpair/internal/transport/openai"
	healthuc "github.com/kailas-cloud/artpair/internal/usecase/health"
	"github.com/kailas-cloud/artpair/internal/usecase/imagegen"
	pairinguc "github.com/kailas-cloud/artpair/internal/usecase/pairing"
)

// app is the composition root shared by serve and pair.
type app struct {
	snapshot *corpus.Snapshot
	pairing  *pairinguc.Service
	images   *imagegen.Service
	health   *healthuc.Service
	store    db.Store
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// buildApp loads the corpus and wires the services. withImages controls whether
// the image provider and cache are connected.
func buildApp(ctx context.Context, cfg config.Config, withImages bool, logger *zap.Logger) (*app, error) {
	snap, err := dataset.Load(ctx, cfg.Corpus, logger)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	pairing := pairinguc.New(snap).WithArtworkMatches(cfg.Pairing.ArtworkMatches)
	if err := pairing.Warm(); err != nil {
		return nil, fmt.Errorf("warm pairing: %w", err)
	}

	a := &app{snapshot: snap, pairing: pairing}

	var (
		cachePinger healthuc.DBPinger
		imageCheck  healthuc.ImageChecker
		synth       imagegen.Synthesizer
	)

	if withImages && cfg.Image.Enabled {
		if len(cfg.Cache.Addrs) > 0 {
			store, err := dbRedis.NewStore(dbRedis.Config{
				Addrs:    cfg.Cache.Addrs,
				Password: cfg.Cache.Password,
			})
			if err != nil {
				return nil, fmt.Errorf("connect cache: %w", err)
			}
			timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
			if err := store.WaitForReady(ctx, timeout); err != nil {
				store.Close()
				return nil, fmt.Errorf("cache not ready: %w", err)
			}
			a.store = store
			cachePinger = store
			logger.Info("Image cache connected", zap.Strings("addrs", cfg.Cache.Addrs))
		}

		synth, imageCheck = buildSynthesizer(cfg.Image, cfg.Cache, a.store, logger)
		logger.Info("Image synthesis enabled",
			zap.String("base_url", cfg.Image.BaseURL),
			zap.String("model", cfg.Image.Model),
		)
	}

	a.images = imagegen.New(synth, *cfg.Image.PromptTemplate)
	a.health = healthuc.New(snap, cachePinger, imageCheck)
	return a, nil
}

// buildSynthesizer assembles the decorator chain: OpenAI -> Cached.
func buildSynthesizer(
	imgCfg config.ImageConfig,
	cacheCfg config.CacheConfig,
	store db.Store,
	logger *zap.Logger,
) (imagegen.Synthesizer, healthuc.ImageChecker) {
	base := openaiImg.NewSynthesizer(&openaiImg.Config{
		APIKey:            imgCfg.APIKey,
		BaseURL:           imgCfg.BaseURL,
		Model:             imgCfg.Model,
		Size:              imgCfg.Size,
		Provider:          imgCfg.Provider,
		Timeout:           time.Duration(imgCfg.TimeoutSec) * time.Second,
		RequestsPerSecond: imgCfg.RequestsPerSecond,
		Burst:             imgCfg.Burst,
		Breaker: openaiImg.BreakerConfig{
			MinRequests:  imgCfg.Breaker.MinRequests,
			FailureRatio: imgCfg.Breaker.FailureRatio,
			Interval:     time.Duration(imgCfg.Breaker.IntervalSec) * time.Second,
			OpenTimeout:  time.Duration(imgCfg.Breaker.OpenSec) * time.Second,
		},
		Logger: logger,
	})

	if store == nil {
		return base, base
	}
	ttl := time.Duration(cacheCfg.TTLHours) * time.Hour
	cached := imgcache.New(base, store, ttl, metrics.ImageCacheTotal, logger)
	return cached, cached
}
