// Package imgcache caches synthesized images in a key-value store.
package imgcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/db"
	"github.com/kailas-cloud/artpair/internal/domain"
)

const cacheKeyPrefix = "artpair:img_cache:"

// store is the consumer interface for the image cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedImage struct {
	MIMEType      string `json:"mime"`
	Data          []byte `json:"data"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// CachedSynthesizer serves repeated prompts from the store.
// Store failures never fail a request; they are logged and the provider is called.
type CachedSynthesizer struct {
	inner      domain.ImageSynthesizer
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.ImageSynthesizer,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSynthesizer {
	return &CachedSynthesizer{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Synthesize returns a cached image for the prompt or calls the inner synthesizer.
func (c *CachedSynthesizer) Synthesize(ctx context.Context, req domain.ImageRequest) (domain.Image, error) {
	key := CacheKey(req.Prompt)

	if img, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return img, nil
	}
	c.incCache("miss")

	img, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		return domain.Image{}, fmt.Errorf("synthesize image: %w", err)
	}

	c.putToCache(ctx, key, img)
	return img, nil
}

// HealthCheck delegates to the inner synthesizer when it supports health checks.
func (c *CachedSynthesizer) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// CacheKey returns the store key for a prompt.
func CacheKey(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedSynthesizer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedSynthesizer) getFromCache(ctx context.Context, key string) (domain.Image, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached image", zap.String("key", key), zap.Error(err))
		}
		return domain.Image{}, false
	}
	if len(data) == 0 {
		return domain.Image{}, false
	}

	var ci cachedImage
	if err := json.Unmarshal(data, &ci); err != nil || len(ci.Data) == 0 {
		c.logger.Warn("Failed to parse cached image", zap.String("key", key), zap.Error(err))
		return domain.Image{}, false
	}
	return domain.Image{Data: ci.Data, MIMEType: ci.MIMEType, RevisedPrompt: ci.RevisedPrompt}, true
}

func (c *CachedSynthesizer) putToCache(ctx context.Context, key string, img domain.Image) {
	data, err := json.Marshal(cachedImage{MIMEType: img.MIMEType, Data: img.Data, RevisedPrompt: img.RevisedPrompt})
	if err != nil {
		c.logger.Warn("Failed to encode image for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache image", zap.String("key", key), zap.Error(err))
	}
}
