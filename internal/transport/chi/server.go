package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/domain"
	healthuc "github.com/kailas-cloud/artpair/internal/usecase/health"
)

const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the pairing, image and health endpoints.
type Server struct {
	pairing       Pairer
	images        ImageGenerator
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(pairing Pairer, images ImageGenerator, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		pairing: pairing,
		images:  images,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeBadRequest, msgEnterDescription),
		sentinelHandler(domain.ErrNoRecipes, http.StatusNotFound, CodeNoRecipes, msgNoRecipe),
		sentinelHandler(domain.ErrNoArtworks, http.StatusNotFound, CodeNoArtworks, msgNoArtwork),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusNotFound, CodeEmptyCorpus, msgNoRecipe),
		sentinelHandler(domain.ErrImageDisabled, http.StatusNotFound, CodeImageDisabled, "Image generation is not enabled"),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "Too many requests"),
		sentinelHandler(domain.ErrImageServiceUnavailable,
			http.StatusServiceUnavailable, CodeServiceUnavailable, "Image service is temporarily unavailable"),
		synthesisErrorHandler,
	}
	return s
}

// GeneratePairing handles POST /generate-pairing.
func (s *Server) GeneratePairing(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	res, err := s.pairing.Pair(r.Context(), input)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pairingToDTO(res))
}

// GenerateArt handles POST /generate-ai-art.
func (s *Server) GenerateArt(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	img, err := s.images.Generate(r.Context(), input)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ImageResponse{
		Success:   true,
		ID:        img.ID.String(),
		Prompt:    img.Prompt,
		ImageData: img.DataURL,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeInput reads and validates {"input": "..."}. It writes the 400 response itself.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req inputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, msgEnterDescription)
		return "", false
	}

	req.Input = strings.TrimSpace(req.Input)
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, validationMessage(err))
		return "", false
	}
	return req.Input, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// synthesisErrorHandler surfaces the image provider's message to the client.
func synthesisErrorHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrImageSynthesis) {
		return false
	}
	msg := domain.ErrImageSynthesis.Error()
	var se *domain.SynthesisError
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}
	writeError(w, http.StatusBadGateway, CodeImageSynthesis, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
