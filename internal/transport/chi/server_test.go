package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/domain"
	"github.com/kailas-cloud/artpair/internal/domain/corpus"
	"github.com/kailas-cloud/artpair/internal/domain/match"
	openaiImg "github.com/kailas-cloud/artpair/internal/transport/openai"
	healthuc "github.com/kailas-cloud/artpair/internal/usecase/health"
	"github.com/kailas-cloud/artpair/internal/usecase/imagegen"
)

// --- Mocks ---

type mockPairer struct {
	result match.PairingResult
	err    error
	query  string
}

func (m *mockPairer) Pair(_ context.Context, query string) (match.PairingResult, error) {
	m.query = query
	return m.result, m.err
}

type mockImages struct {
	image imagegen.GeneratedImage
	err   error
	input string
}

func (m *mockImages) Generate(_ context.Context, description string) (imagegen.GeneratedImage, error) {
	m.input = description
	return m.image, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockPanicPairer struct{}

func (mockPanicPairer) Pair(context.Context, string) (match.PairingResult, error) {
	panic("boom")
}

// --- Helpers ---

func soupResult() match.PairingResult {
	return match.PairingResult{
		Recipe: match.RecipeMatch{
			Index:  0,
			Recipe: corpus.Recipe{Name: "Tomato Soup", Description: "warm tomato basil soup"},
			Score:  0.82,
		},
		Artworks: []match.ArtworkMatch{
			{Index: 0, Artwork: corpus.Artwork{
				Title: "Basil Fields", Artist: "A. Green", Style: "Impressionism",
				Category: "Landscape", ImageURL: "https://img/1",
			}, Score: 0.5},
			{Index: 1, Artwork: corpus.Artwork{Title: "Red Abstract"}, Score: 0},
		},
	}
}

func newTestRouter(p Pairer, img ImageGenerator, opts RouterOptions) http.Handler {
	h := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.ComponentRecipes: healthuc.CheckOK},
	}}
	return NewRouter(NewServer(p, img, h, zap.NewNop()), opts, zap.NewNop())
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestGeneratePairing_Success(t *testing.T) {
	p := &mockPairer{result: soupResult()}
	h := newTestRouter(p, &mockImages{}, RouterOptions{})

	rr := post(t, h, "/generate-pairing", `{"input":"  tomato basil "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	if p.query != "tomato basil" {
		t.Errorf("expected trimmed query, got %q", p.query)
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["success"] != true {
		t.Errorf("expected success=true, got %v", raw["success"])
	}

	arts := raw["art_matches"].([]any)
	if len(arts) != 2 {
		t.Fatalf("expected 2 art matches, got %d", len(arts))
	}
	first := arts[0].(map[string]any)
	m := first["match"].(map[string]any)
	if m["Title"] != "Basil Fields" || m["Image URL"] != "https://img/1" || m["Artist"] != "A. Green" {
		t.Errorf("unexpected artwork fields: %v", m)
	}
	if first["similarity"] != 0.5 {
		t.Errorf("unexpected similarity: %v", first["similarity"])
	}

	recipe := raw["recipe"].(map[string]any)
	if recipe["match"].(map[string]any)["name"] != "Tomato Soup" {
		t.Errorf("unexpected recipe: %v", recipe)
	}
}

func TestGeneratePairing_BadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty input", `{"input":""}`, msgEnterDescription},
		{"blank input", `{"input":"   "}`, msgEnterDescription},
		{"missing field", `{}`, msgEnterDescription},
		{"invalid json", `{"input":`, msgEnterDescription},
		{"too long", fmt.Sprintf(`{"input":%q}`, strings.Repeat("a", 2001)), "Food description must be at most 2000 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &mockPairer{result: soupResult()}
			rr := post(t, newTestRouter(p, &mockImages{}, RouterOptions{}), "/generate-pairing", tc.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Error != tc.wantMsg || resp.Code != CodeBadRequest {
				t.Errorf("unexpected error: %+v", resp)
			}
			if p.query != "" {
				t.Error("pairer must not be called on bad input")
			}
		})
	}
}

func TestGeneratePairing_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"no recipes", domain.ErrNoRecipes, http.StatusNotFound, CodeNoRecipes, msgNoRecipe},
		{"no artworks", fmt.Errorf("pair: %w", domain.ErrNoArtworks), http.StatusNotFound, CodeNoArtworks, msgNoArtwork},
		{"empty corpus", domain.ErrEmptyCorpus, http.StatusNotFound, CodeEmptyCorpus, msgNoRecipe},
		{"invalid input", fmt.Errorf("%w: bad utf-8", domain.ErrInvalidInput), http.StatusBadRequest, CodeBadRequest, msgEnterDescription},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternalError, "internal error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(&mockPairer{err: tc.err}, &mockImages{}, RouterOptions{})
			rr := post(t, h, "/generate-pairing", `{"input":"soup"}`)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.wantCode || resp.Error != tc.wantMsg {
				t.Errorf("unexpected error: %+v", resp)
			}
		})
	}
}

func TestGenerateArt_Success(t *testing.T) {
	id := uuid.New()
	img := &mockImages{image: imagegen.GeneratedImage{
		ID:      id,
		Prompt:  "A beautiful photograph of ramen, food photography",
		DataURL: "data:image/png;base64,YWJj",
	}}
	h := newTestRouter(&mockPairer{}, img, RouterOptions{})

	rr := post(t, h, "/generate-ai-art", `{"input":"ramen"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp ImageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.ID != id.String() || resp.ImageData != "data:image/png;base64,YWJj" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if img.input != "ramen" {
		t.Errorf("unexpected input %q", img.input)
	}
}

func TestGenerateArt_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"disabled", domain.ErrImageDisabled, http.StatusNotFound, CodeImageDisabled, "Image generation is not enabled"},
		{"synthesis message surfaced", domain.NewSynthesisError("CUDA out of memory"),
			http.StatusBadGateway, CodeImageSynthesis, "CUDA out of memory"},
		{"circuit open", fmt.Errorf("x: %w", domain.ErrImageServiceUnavailable),
			http.StatusServiceUnavailable, CodeServiceUnavailable, "Image service is temporarily unavailable"},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "Too many requests"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(&mockPairer{}, &mockImages{err: tc.err}, RouterOptions{})
			rr := post(t, h, "/generate-ai-art", `{"input":"soup"}`)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.wantCode || resp.Error != tc.wantMsg {
				t.Errorf("unexpected error: %+v", resp)
			}
		})
	}
}

func TestGenerateArt_ProviderTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()

	synth := openaiImg.NewSynthesizer(&openaiImg.Config{
		BaseURL:  upstream.URL,
		Model:    "sd-test",
		Provider: "test",
		Timeout:  50 * time.Millisecond,
		Logger:   zap.NewNop(),
	})
	h := newTestRouter(&mockPairer{}, imagegen.New(synth, ""), RouterOptions{})

	rr := post(t, h, "/generate-ai-art", `{"input":"soup"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeError(t, rr)
	if resp.Code != CodeImageSynthesis || resp.Error != "image service timed out after 50ms" {
		t.Errorf("unexpected error: %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status     healthuc.Status
		wantStatus int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			hc := &mockHealth{report: healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentImage: healthuc.CheckError},
			}}
			h := NewRouter(NewServer(&mockPairer{}, &mockImages{}, hc, zap.NewNop()), RouterOptions{}, zap.NewNop())

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if rr.Code != tc.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.status) || resp.Checks[healthuc.ComponentImage] != "error" {
				t.Errorf("unexpected body: %+v", resp)
			}
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := newTestRouter(&mockPairer{result: soupResult()}, &mockImages{}, RouterOptions{APIKeys: []string{"k"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "artpair_http_requests_in_flight") {
		t.Error("expected http metrics in output")
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	h := newTestRouter(&mockPairer{result: soupResult()}, &mockImages{}, RouterOptions{APIKeys: []string{"k"}})

	rr := post(t, h, "/generate-pairing", `{"input":"soup"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/generate-pairing", strings.NewReader(`{"input":"soup"}`))
	req.Header.Set("Authorization", "Bearer k")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rr.Code)
	}
}

func TestRouter_RequestID(t *testing.T) {
	h := newTestRouter(&mockPairer{result: soupResult()}, &mockImages{}, RouterOptions{})

	rr := post(t, h, "/generate-pairing", `{"input":"soup"}`)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := newTestRouter(&mockPairer{result: soupResult()}, &mockImages{}, RouterOptions{RequestsPerMinute: 2})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = post(t, h, "/generate-pairing", `{"input":"soup"}`).Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", codes[2])
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("health must not be rate limited, got %d", rr.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	h := newTestRouter(&mockPairer{}, &mockImages{}, RouterOptions{
		AllowedOrigins: []string{"https://app.example.com"},
		APIKeys:        []string{"k"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/generate-pairing", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("unexpected allow-origin %q", got)
	}
}

func TestRouter_PanicReturnsJSON(t *testing.T) {
	h := newTestRouter(mockPanicPairer{}, &mockImages{}, RouterOptions{})

	rr := post(t, h, "/generate-pairing", `{"input":"soup"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeInternalError {
		t.Errorf("unexpected error: %+v", resp)
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(&mockPairer{}, &mockImages{}, RouterOptions{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate-pairing", bytes.NewReader(nil)))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
