package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/vector"
)

// Guard wraps an Embedder for the request path. It caps in-flight inferences,
// bounds each call by a timeout and rejects vectors whose length differs from
// the index dimensionality.
type Guard struct {
	embedder   Embedder
	dimensions int
	sem        *semaphore.Weighted
	timeout    time.Duration
	logger     *zap.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithMaxConcurrency caps concurrent inferences. n <= 0 keeps the default of 4.
func WithMaxConcurrency(n int) GuardOption {
	return func(g *Guard) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout bounds each Embed call. Zero disables the bound.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = d }
}

// WithLogger sets the logger used for dimension mismatches and timeouts.
func WithLogger(l *zap.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard wraps embedder; dimensions is the index dimensionality every output must match.
func NewGuard(embedder Embedder, dimensions int, opts ...GuardOption) *Guard {
	g := &Guard{
		embedder:   embedder,
		dimensions: dimensions,
		sem:        semaphore.NewWeighted(4),
		timeout:    5 * time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type embedResult struct {
	vec []float32
	err error
}

// Embed encodes text. The slot is held until inference finishes, even when the
// caller gives up on timeout, so the concurrency cap covers abandoned calls too.
func (g *Guard) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		metrics.RecordEncode(time.Since(start), err)
		return nil, fmt.Errorf("wait for encoder: %w", err)
	}

	done := make(chan embedResult, 1)
	go func() {
		defer g.sem.Release(1)
		vec, err := g.embedder.Embed(ctx, text)
		done <- embedResult{vec: vec, err: err}
	}()

	var res embedResult
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
		g.logger.Warn("encoder call abandoned", zap.Duration("timeout", g.timeout), zap.Error(res.err))
	case res = <-done:
	}
	metrics.RecordEncode(time.Since(start), res.err)
	if res.err != nil {
		return nil, fmt.Errorf("encode: %w", res.err)
	}

	if len(res.vec) != g.dimensions {
		g.logger.Error("encoder output does not match index dimensionality",
			zap.Int("encoder_dimensions", len(res.vec)),
			zap.Int("index_dimensions", g.dimensions))
		return nil, fmt.Errorf("%w: encoder returned %d dimensions, index has %d",
			vector.ErrDimensionMismatch, len(res.vec), g.dimensions)
	}
	return res.vec, nil
}

// EmbedBatch calls Embed for each text.
func (g *Guard) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, g, texts)
}

// Dimensions returns the index dimensionality the guard enforces.
func (g *Guard) Dimensions() int {
	return g.dimensions
}

// Close closes the wrapped embedder.
func (g *Guard) Close() error {
	return g.embedder.Close()
}
