// Package openai implements image synthesis against OpenAI-compatible image APIs.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/artpair/internal/domain"
	"github.com/kailas-cloud/artpair/internal/metrics"
)

const breakerName = "image-synthesis"

// Config holds the image provider settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Size              string
	Provider          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
	Logger            *zap.Logger
}

// BreakerConfig controls when the provider circuit opens.
type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

// Synthesizer is an image provider using the OpenAI images API.
// Self-hosted diffusion servers exposing the same API work via BaseURL.
type Synthesizer struct {
	client   *openai.Client
	model    string
	size     string
	provider string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[domain.Image]
	logger   *zap.Logger
}

var _ domain.ImageSynthesizer = (*Synthesizer)(nil)

// NewSynthesizer creates an OpenAI-compatible image synthesizer.
func NewSynthesizer(cfg *Config) *Synthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Synthesizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		size:     cfg.Size,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	bc := cfg.Breaker
	s.breaker = gobreaker.NewCircuitBreaker[domain.Image](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    bc.Interval,
		Timeout:     bc.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if bc.MinRequests == 0 || counts.Requests < bc.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= bc.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			var rejected *rejectedError
			return err == nil || errors.Is(err, context.Canceled) || errors.As(err, &rejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))

	return s
}

// Synthesize implements domain.ImageSynthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, req domain.ImageRequest) (domain.Image, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "rate_limited").Inc()
			return domain.Image{}, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	img, err := s.breaker.Execute(func() (domain.Image, error) {
		return s.createImage(ctx, req.Prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "circuit_open").Inc()
			return domain.Image{}, fmt.Errorf("%w: %w", domain.ErrImageServiceUnavailable, err)
		}
		return domain.Image{}, err
	}
	return img, nil
}

func (s *Synthesizer) createImage(parent context.Context, prompt string) (domain.Image, error) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.model,
		N:              1,
		Size:           s.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})

	duration := time.Since(start)
	metrics.ImageRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	if err != nil {
		metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		if ctxErr := parent.Err(); ctxErr != nil {
			return domain.Image{}, fmt.Errorf("image request: %w", ctxErr)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Image{}, domain.NewSynthesisError(
				fmt.Sprintf("image service timed out after %s", s.timeout))
		}
		return domain.Image{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.Image{}, domain.NewSynthesisError("empty image response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.Image{}, domain.NewSynthesisError("invalid base64 image data")
	}

	metrics.ImageRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	s.logger.Debug("Image request completed",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Duration("duration", duration),
		zap.Int("bytes", len(data)),
	)

	return domain.Image{
		Data:          data,
		MIMEType:      http.DetectContentType(data),
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (s *Synthesizer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// BreakerState reports the current circuit state.
func (s *Synthesizer) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// rejectedError marks a request the provider refused on its own merits (4xx other
// than 429). It does not count against the circuit breaker.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string { return e.err.Error() }

func (e *rejectedError) Unwrap() error { return e.err }

// parseAPIError extracts a human-readable message from the API response.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return byStatus(apiErr.HTTPStatusCode, domain.NewSynthesisError(apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		switch {
		case msg != "":
		case len(reqErr.Body) > 0:
			msg = string(reqErr.Body)
		default:
			msg = fmt.Sprintf("status %d", reqErr.HTTPStatusCode)
		}
		return byStatus(reqErr.HTTPStatusCode, domain.NewSynthesisError(msg))
	}

	return domain.NewSynthesisError(err.Error())
}

func byStatus(status int, err error) error {
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return &rejectedError{err: err}
	}
	return err
}

// extractDetail extracts the "detail" or "error" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error
}
