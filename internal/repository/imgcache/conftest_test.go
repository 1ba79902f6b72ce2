package imgcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/db"
	"github.com/kailas-cloud/artpair/internal/domain"
)

type mockSynthesizer struct {
	image     domain.Image
	err       error
	calls     int
	healthErr error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, _ domain.ImageRequest) (domain.Image, error) {
	m.calls++
	return m.image, m.err
}

func (m *mockSynthesizer) HealthCheck(_ context.Context) error {
	return m.healthErr
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedSynthesizer(t *testing.T, inner *mockSynthesizer) (*CachedSynthesizer, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cs := New(inner, ms, time.Hour, nil, zap.NewNop())
	return cs, ms
}
