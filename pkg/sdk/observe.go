package artpair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels. Anything not listed is "error".
const (
	outcomeOK               = "ok"
	outcomeInvalidInput     = "invalid_input"
	outcomeEmptyCorpus      = "empty_corpus"
	outcomeNoRecipes        = "no_recipes"
	outcomeNoArtworks       = "no_artworks"
	outcomeImageDisabled    = "image_disabled"
	outcomeImageUnavailable = "image_unavailable"
	outcomeImageFailed      = "image_failed"
	outcomeRateLimited      = "rate_limited"
	outcomeCanceled         = "canceled"
	outcomeError            = "error"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rows       *prometheus.GaugeVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artpair",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "artpair",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			// Pairing is sub-millisecond; image synthesis takes minutes on CPU.
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 1, 10, 60, 300},
		}, []string{"operation"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "artpair",
			Subsystem: "sdk",
			Name:      "corpus_rows",
			Help:      "Rows loaded per table.",
		}, []string{"table"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.rows); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("artpair: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("artpair: register metric: %w", err)
	}
	return nil
}

// outcome maps an operation error to its metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrInvalidInput):
		return outcomeInvalidInput
	case errors.Is(err, ErrEmptyCorpus):
		return outcomeEmptyCorpus
	case errors.Is(err, ErrNoRecipes):
		return outcomeNoRecipes
	case errors.Is(err, ErrNoArtworks):
		return outcomeNoArtworks
	case errors.Is(err, ErrImageDisabled):
		return outcomeImageDisabled
	case errors.Is(err, ErrImageServiceUnavailable):
		return outcomeImageUnavailable
	case errors.Is(err, ErrRateLimited):
		return outcomeRateLimited
	case errors.Is(err, ErrImageSynthesis):
		return outcomeImageFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeError
	}
}

// callerFault reports outcomes caused by the input or the client's setup rather
// than by the engine or the image provider.
func callerFault(o string) bool {
	switch o {
	case outcomeInvalidInput, outcomeEmptyCorpus, outcomeNoRecipes, outcomeNoArtworks,
		outcomeImageDisabled, outcomeCanceled:
		return true
	}
	return false
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger   *slog.Logger
	metrics  *sdkMetrics
	corpusID string
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// loaded records the corpus the client serves.
func (o *observer) loaded(st Stats) {
	o.corpusID = st.CorpusID
	if o.metrics != nil {
		o.metrics.rows.WithLabelValues("recipes").Set(float64(st.Recipes))
		o.metrics.rows.WithLabelValues("artworks").Set(float64(st.Artworks))
	}
	if o.logger != nil {
		o.logger.Info("corpus loaded",
			"corpus", st.CorpusID,
			"recipes", st.Recipes,
			"artworks", st.Artworks,
		)
	}
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, out).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", op, "outcome", out, "duration", dur, "corpus", o.corpusID}
	switch {
	case err == nil:
		o.logger.Debug("operation completed", attrs...)
	case callerFault(out):
		o.logger.Info("operation rejected", append(attrs, "error", err)...)
	default:
		o.logger.Warn("operation failed", append(attrs, "error", err)...)
	}
}
