package artpair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockSynthesizer struct {
	fn       func(ctx context.Context, prompt string) (Image, error)
	healthFn func(ctx context.Context) error
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, prompt string) (Image, error) {
	return m.fn(ctx, prompt)
}

func (m *mockSynthesizer) HealthCheck(ctx context.Context) error {
	if m.healthFn == nil {
		return nil
	}
	return m.healthFn(ctx)
}

func sampleRows() ([]Recipe, []Artwork) {
	recipes := []Recipe{
		{Name: "Tomato Soup", Description: "warm tomato basil soup"},
		{Name: "Lemon Tart", Description: "lemon tart with sunset glaze"},
	}
	artworks := []Artwork{
		{Title: "Basil Fields", Artist: "A. Green"},
		{Title: "Sunset Harbor", Artist: "B. Gold"},
		{Title: "Ocean View", Artist: "C. Blue"},
		{Title: "Garden Path", Artist: "D. Brown"},
	}
	return recipes, artworks
}

func newRowsClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	recipes, artworks := sampleRows()
	c, err := New(context.Background(), append([]Option{WithRows(recipes, artworks)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_NoSources(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no tables provided")
	}
}

func TestNew_OnlyRecipes(t *testing.T) {
	_, err := New(context.Background(), WithRecipes(Source{Path: "../../data/recipes.csv"}))
	if err == nil {
		t.Fatal("expected error when artworks are missing")
	}
}

func TestNew_FromFiles(t *testing.T) {
	c, err := New(context.Background(),
		WithRecipes(Source{Path: "../../data/recipes.csv"}),
		WithArtworks(Source{Path: "../../data/artworks.csv"}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st := c.Stats()
	if st.Recipes == 0 || st.Artworks == 0 || st.CorpusID == "" {
		t.Fatalf("unexpected stats: %+v", st)
	}

	res, err := c.Pair(context.Background(), "tomato basil")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if res.Recipe.Recipe.Name != "Tomato Soup" {
		t.Errorf("recipe = %q, want Tomato Soup", res.Recipe.Recipe.Name)
	}
	if len(res.Artworks) != 3 {
		t.Errorf("artworks = %d, want 3", len(res.Artworks))
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(context.Background(),
		WithRecipes(Source{Path: "does-not-exist.csv"}),
		WithArtworks(Source{Path: "../../data/artworks.csv"}),
	)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPair_TwoHop(t *testing.T) {
	c := newRowsClient(t, WithArtworkMatches(1))

	res, err := c.Pair(context.Background(), "lemon")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if res.Recipe.Index != 1 || res.Recipe.Recipe.Name != "Lemon Tart" {
		t.Fatalf("recipe = %+v, want Lemon Tart", res.Recipe)
	}
	if len(res.Artworks) != 1 || res.Artworks[0].Artwork.Title != "Sunset Harbor" {
		t.Errorf("artworks = %+v, want Sunset Harbor", res.Artworks)
	}
}

func TestPair_Errors(t *testing.T) {
	recipes, artworks := sampleRows()

	noRecipes, err := New(context.Background(), WithRows(nil, artworks))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := noRecipes.Pair(context.Background(), "soup"); !errors.Is(err, ErrNoRecipes) {
		t.Errorf("expected ErrNoRecipes, got %v", err)
	}

	noArt, err := New(context.Background(), WithRows(recipes, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := noArt.Pair(context.Background(), "soup"); !errors.Is(err, ErrNoArtworks) {
		t.Errorf("expected ErrNoArtworks, got %v", err)
	}

	c := newRowsClient(t)
	if _, err := c.Pair(context.Background(), "\xff"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateImage_Disabled(t *testing.T) {
	c := newRowsClient(t)

	_, err := c.GenerateImage(context.Background(), "tomato soup")
	if !errors.Is(err, ErrImageDisabled) {
		t.Fatalf("expected ErrImageDisabled, got %v", err)
	}
}

func TestGenerateImage_Success(t *testing.T) {
	var gotPrompt string
	synth := &mockSynthesizer{fn: func(_ context.Context, prompt string) (Image, error) {
		gotPrompt = prompt
		return Image{Data: []byte("png-bytes")}, nil
	}}
	c := newRowsClient(t, WithImageSynthesizer(synth), WithPromptTemplate("still life of %s"))

	img, err := c.GenerateImage(context.Background(), "  tomato soup ")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if gotPrompt != "still life of tomato soup" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	if img.Prompt != gotPrompt {
		t.Errorf("img.Prompt = %q, want %q", img.Prompt, gotPrompt)
	}
	if !strings.HasPrefix(img.DataURL, "data:image/png;base64,") {
		t.Errorf("unexpected data URL %q", img.DataURL)
	}
	if img.ID == "" {
		t.Error("expected image ID")
	}
}

func TestGenerateImage_ProviderError(t *testing.T) {
	synth := &mockSynthesizer{fn: func(context.Context, string) (Image, error) {
		return Image{}, errors.New("model overloaded")
	}}
	c := newRowsClient(t, WithImageSynthesizer(synth))

	_, err := c.GenerateImage(context.Background(), "tomato soup")
	var se *SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
	if se.Message != "model overloaded" {
		t.Errorf("message = %q", se.Message)
	}
	if !errors.Is(err, ErrImageSynthesis) {
		t.Error("expected ErrImageSynthesis in chain")
	}
}

func TestHealth(t *testing.T) {
	c := newRowsClient(t)
	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, want ok", h.Status)
	}
	if _, ok := h.Checks["image"]; ok {
		t.Error("image check should be omitted without a synthesizer")
	}

	synth := &mockSynthesizer{
		fn:       func(context.Context, string) (Image, error) { return Image{}, nil },
		healthFn: func(context.Context) error { return errors.New("down") },
	}
	degraded := newRowsClient(t, WithImageSynthesizer(synth))
	h = degraded.Health(context.Background())
	if h.Status != "degraded" || h.Checks["image"] != "error" {
		t.Errorf("unexpected health: %+v", h)
	}

	empty, err := New(context.Background(), WithRows(nil, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h := empty.Health(context.Background()); h.Status != "error" {
		t.Errorf("empty corpus status = %q, want error", h.Status)
	}
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newRowsClient(t, WithPrometheus(reg))

	_, _ = c.Pair(context.Background(), "tomato")
	_, _ = c.Pair(context.Background(), "\xff")
	_, _ = c.GenerateImage(context.Background(), "tomato")

	m, err := newSDKMetrics(reg)
	if err != nil {
		t.Fatalf("re-register should reuse collectors: %v", err)
	}
	counts := map[[2]string]float64{
		{"pair", "ok"}:                       1,
		{"pair", "invalid_input"}:            1,
		{"generate_image", "image_disabled"}: 1,
	}
	for labels, want := range counts {
		if got := testutil.ToFloat64(m.operations.WithLabelValues(labels[0], labels[1])); got != want {
			t.Errorf("%v = %v, want %v", labels, got, want)
		}
	}
	if got := testutil.ToFloat64(m.rows.WithLabelValues("artworks")); got != 4 {
		t.Errorf("artworks rows = %v, want 4", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("pair: %w", ErrNoRecipes), "no_recipes"},
		{fmt.Errorf("pair: %w", ErrNoArtworks), "no_artworks"},
		{ErrImageDisabled, "image_disabled"},
		{fmt.Errorf("x: %w", ErrImageServiceUnavailable), "image_unavailable"},
		{&SynthesisError{Message: "boom"}, "image_failed"},
		{context.Canceled, "canceled"},
		{errors.New("disk on fire"), "error"},
	}

	for _, tc := range tests {
		if got := outcome(tc.err); got != tc.want {
			t.Errorf("outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newRowsClient(t, WithLogger(logger))

	_, _ = c.Pair(context.Background(), "\xff")
	out := buf.String()
	for _, want := range []string{"corpus loaded", "operation rejected", "op=pair", "outcome=invalid_input"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}

	buf.Reset()
	synth := &mockSynthesizer{fn: func(context.Context, string) (Image, error) {
		return Image{}, errors.New("model overloaded")
	}}
	failing := newRowsClient(t, WithLogger(logger), WithImageSynthesizer(synth))
	_, _ = failing.GenerateImage(context.Background(), "soup")
	if !strings.Contains(buf.String(), "operation failed") || !strings.Contains(buf.String(), "outcome=image_failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("pair", time.Now(), nil)
}
