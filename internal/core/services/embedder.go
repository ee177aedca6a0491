package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Text length limits for embedding input, in characters.
const (
	MaxEmbedChars = 30000

	// truncateMargin is left free below the ceiling for the marker.
	truncateMargin = 50

	// newlineWindow is how far back from the ceiling a newline is
	// looked for as a cleaner cut point.
	newlineWindow = 500

	truncatedMarker = "\n\n[Content truncated due to length]"
)

// TruncateForEmbedding shortens text that exceeds maxChars characters.
// The cut is made at maxChars-50, moved back to the last newline when
// that newline is within the final 500 characters, and a marker is
// appended. Text within the limit is returned unchanged.
func TruncateForEmbedding(text string, maxChars int) string {
	if maxChars <= truncateMargin || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxChars-truncateMargin])
	if i := strings.LastIndexByte(cut, '\n'); i >= 0 && utf8.RuneCountInString(cut[:i]) > maxChars-newlineWindow {
		cut = cut[:i]
	}
	return cut + truncatedMarker
}

// EmbedderConfig configures a BatchEmbedder.
type EmbedderConfig struct {
	// BatchSize is the number of texts per request. Capped at domain.MaxBatchSize.
	BatchSize int

	// Workers bounds concurrent batch requests.
	Workers int

	// MaxRetries is the total attempts per batch on rate limiting.
	MaxRetries int

	// RetryBase is the first backoff delay. It doubles each retry.
	RetryBase time.Duration

	// RequestsPerSecond throttles batch requests. Zero disables throttling.
	RequestsPerSecond float64
}

// EmbedderConfigFrom converts indexing settings to an embedder config.
func EmbedderConfigFrom(s domain.IndexingSettings) EmbedderConfig {
	return EmbedderConfig{
		BatchSize:         s.BatchSize,
		Workers:           s.Workers,
		MaxRetries:        s.MaxRetries,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// BatchEmbedder embeds large text sets in bounded concurrent batches,
// retrying rate-limited batches with exponential backoff.
type BatchEmbedder struct {
	service driven.EmbeddingService
	cfg     EmbedderConfig
	limiter *rate.Limiter
}

// NewBatchEmbedder creates a batch embedder. Zero config values fall back to defaults.
func NewBatchEmbedder(service driven.EmbeddingService, cfg EmbedderConfig) *BatchEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	cfg.BatchSize = min(cfg.BatchSize, domain.MaxBatchSize)
	if cfg.Workers <= 0 {
		cfg.Workers = domain.DefaultWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = domain.DefaultMaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}

	e := &BatchEmbedder{service: service, cfg: cfg}
	if cfg.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return e
}

// EmbedAll returns one embedding per text, in input order. progress, if
// non-nil, is called after each completed batch with the number of
// batches done and the total. A batch that still fails after its retries
// aborts the run.
func (e *BatchEmbedder) EmbedAll(
	ctx context.Context, texts []string, progress func(done, total int),
) ([][]float32, error) {
	if e.service == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	prepared := make([]string, len(texts))
	truncated := 0
	for i, t := range texts {
		prepared[i] = TruncateForEmbedding(t, MaxEmbedChars)
		if len(prepared[i]) != len(t) {
			truncated++
		}
	}
	if truncated > 0 {
		logger.Warn("Truncated %d texts longer than %d characters", truncated, MaxEmbedChars)
	}

	out := make([][]float32, len(prepared))
	total := (len(prepared) + e.cfg.BatchSize - 1) / e.cfg.BatchSize
	var done atomic.Int64

	runBatch := func(ctx context.Context, b int) error {
		start := b * e.cfg.BatchSize
		end := min(start+e.cfg.BatchSize, len(prepared))
		vecs, err := e.embedBatch(ctx, prepared[start:end])
		if err != nil {
			return fmt.Errorf("embed batch %d of %d: %w", b+1, total, err)
		}
		if len(vecs) != end-start {
			return fmt.Errorf("embed batch %d of %d: got %d embeddings for %d texts", b+1, total, len(vecs), end-start)
		}
		copy(out[start:end], vecs)

		n := int(done.Add(1))
		logger.Debug("Embedded batch %d/%d (%d texts)", n, total, end-start)
		if progress != nil {
			progress(n, total)
		}
		return nil
	}

	if total == 1 {
		if err := runBatch(ctx, 0); err != nil {
			return nil, err
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for b := 0; b < total; b++ {
		g.Go(func() error {
			return runBatch(gctx, b)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *BatchEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	policy := retryPolicy{Attempts: e.cfg.MaxRetries, Base: e.cfg.RetryBase}
	err := retryRateLimited(ctx, policy, func() error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		vecs, err = e.service.EmbedBatch(ctx, texts)
		if err != nil && isRateLimited(err) {
			logger.Debug("Rate limited, backing off: %v", err)
		}
		return err
	})
	return vecs, err
}
