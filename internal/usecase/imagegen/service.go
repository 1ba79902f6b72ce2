package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/artpair/internal/domain"
	logpkg "github.com/kailas-cloud/artpair/internal/logger"
)

const defaultMIMEType = "image/png"

// GeneratedImage is a rendered image ready for a browser.
type GeneratedImage struct {
	ID      uuid.UUID
	Prompt  string
	DataURL string
}

// Service turns a food description into a photography-style image.
type Service struct {
	synth    Synthesizer
	template string
}

// New creates an image generation service. synth may be nil when synthesis is
// disabled. template must contain one %s, or be empty to pass the text through.
func New(synth Synthesizer, template string) *Service {
	return &Service{synth: synth, template: template}
}

// Enabled reports whether a synthesizer is configured.
func (s *Service) Enabled() bool { return s.synth != nil }

// Prompt renders the provider prompt for a description.
func (s *Service) Prompt(description string) string {
	if s.template == "" {
		return description
	}
	return strings.Replace(s.template, "%s", description, 1)
}

// Generate renders an image for description.
func (s *Service) Generate(ctx context.Context, description string) (GeneratedImage, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return GeneratedImage{}, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}
	if s.synth == nil {
		return GeneratedImage{}, domain.ErrImageDisabled
	}

	log := logpkg.FromContext(ctx)
	prompt := s.Prompt(description)
	start := time.Now()

	img, err := s.synth.Synthesize(ctx, domain.ImageRequest{Prompt: prompt})
	if err != nil {
		log.Error("Image synthesis failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return GeneratedImage{}, wrapSynthesisError(ctx, err)
	}
	if len(img.Data) == 0 {
		return GeneratedImage{}, domain.NewSynthesisError("provider returned no image data")
	}

	mime := img.MIMEType
	if mime == "" {
		mime = defaultMIMEType
	}

	log.Debug("Image synthesized",
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(img.Data)),
	)

	return GeneratedImage{
		ID:      uuid.New(),
		Prompt:  prompt,
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	}, nil
}

// wrapSynthesisError keeps known domain failures and turns anything else into a
// SynthesisError carrying the provider message. Context errors pass through only
// when the caller's own context ended.
func wrapSynthesisError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrImageSynthesis),
		errors.Is(err, domain.ErrImageServiceUnavailable),
		errors.Is(err, domain.ErrRateLimited):
		return fmt.Errorf("generate image: %w", err)
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return fmt.Errorf("generate image: %w", err)
	default:
		return domain.NewSynthesisError(err.Error())
	}
}
