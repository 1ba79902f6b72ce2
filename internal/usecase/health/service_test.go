package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCorpus struct {
	recipes, artworks int
}

func (m mockCorpus) RecipeCount() int  { return m.recipes }
func (m mockCorpus) ArtworkCount() int { return m.artworks }

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockImageChecker struct {
	err error
}

func (m *mockImageChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(mockCorpus{2, 3}, &mockDBPinger{}, &mockImageChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentRecipes, ComponentArtworks, ComponentCache, ComponentImage} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_OptionalComponentsOmitted(t *testing.T) {
	svc := New(mockCorpus{1, 1}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentCache]; ok {
		t.Error("cache check should be omitted when not configured")
	}
	if _, ok := r.Checks[ComponentImage]; ok {
		t.Error("image check should be omitted when not configured")
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(mockCorpus{1, 1}, &mockDBPinger{err: errors.New("conn refused")}, &mockImageChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentCache])
	}
	if r.Checks[ComponentImage] != CheckOK {
		t.Errorf("expected image %q, got %q", CheckOK, r.Checks[ComponentImage])
	}
}

func TestCheck_ImageError(t *testing.T) {
	svc := New(mockCorpus{1, 1}, nil, &mockImageChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentImage] != CheckError {
		t.Errorf("expected image %q, got %q", CheckError, r.Checks[ComponentImage])
	}
}

func TestCheck_EmptyCorpusIsUnhealthy(t *testing.T) {
	tests := []struct {
		name    string
		corpus  mockCorpus
		failing string
		passing string
	}{
		{"no recipes", mockCorpus{0, 4}, ComponentRecipes, ComponentArtworks},
		{"no artworks", mockCorpus{4, 0}, ComponentArtworks, ComponentRecipes},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.corpus, &mockDBPinger{err: errors.New("down")}, nil).Check(context.Background())
			if r.Status != Unhealthy {
				t.Errorf("expected %q, got %q", Unhealthy, r.Status)
			}
			if r.Checks[tc.failing] != CheckError || r.Checks[tc.passing] != CheckOK {
				t.Errorf("unexpected checks: %v", r.Checks)
			}
		})
	}
}
