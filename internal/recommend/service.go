// Package recommend implements the two retrieval operations: items similar to a
// stored item, and items matching free text. Both return a fixed-length,
// nearest-first list of SKUs.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/embedding"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/vector"
)

const (
	// OutputCount is the length of every recommendation list.
	OutputCount = 10
	// SearchWidth is the number of neighbors fetched: one extra slot for the query item itself.
	SearchWidth = OutputCount + 1
)

var (
	// ErrUnknownProduct is returned when the query SKU is not in the catalog.
	// It also matches catalog.ErrUnknownIdentifier.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrEmptyQuery is returned for empty or whitespace-only text.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInsufficientCatalog is returned when the index holds fewer vectors than the search width.
	ErrInsufficientCatalog = errors.New("insufficient catalog")
	// ErrNoEncoder is returned for text queries when the service was built without an encoder.
	ErrNoEncoder = errors.New("text encoder not configured")
)

// IsClientError reports whether err was caused by the request rather than the deployment.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownProduct) || errors.Is(err, ErrEmptyQuery)
}

// Recommendation is one result: the SKU and its distance to the query vector.
type Recommendation struct {
	SKU      string  `json:"sku"`
	Distance float64 `json:"distance"`
}

// Service answers recommendation queries over immutable, startup-loaded artifacts.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	index   vector.VectorIndex
	table   *catalog.EmbeddingTable
	encoder embedding.Embedder
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a service. table and index must come from the same build
// (checked with catalog.Verify). encoder may be nil, which disables text queries.
func NewService(index vector.VectorIndex, table *catalog.EmbeddingTable, encoder embedding.Embedder, opts ...Option) (*Service, error) {
	if err := catalog.Verify(table, index); err != nil {
		return nil, fmt.Errorf("artifacts disagree: %w", err)
	}
	s := &Service{
		index:   index,
		table:   table,
		encoder: encoder,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OutputCount returns the fixed list length.
func (s *Service) OutputCount() int { return OutputCount }

// Index returns the underlying vector index.
func (s *Service) Index() vector.VectorIndex { return s.index }

// Table returns the embedding table.
func (s *Service) Table() *catalog.EmbeddingTable { return s.table }

// RecommendSimilar returns the SKUs most similar to sku, nearest first, never including sku.
func (s *Service) RecommendSimilar(ctx context.Context, sku string) ([]string, error) {
	recs, err := s.SimilarNeighbors(ctx, sku)
	if err != nil {
		return nil, err
	}
	return SKUs(recs), nil
}

// RecommendFromText returns the SKUs nearest to the encoded text, nearest first.
func (s *Service) RecommendFromText(ctx context.Context, text string) ([]string, error) {
	recs, err := s.TextNeighbors(ctx, text)
	if err != nil {
		return nil, err
	}
	return SKUs(recs), nil
}

// SimilarNeighbors is RecommendSimilar with distances.
func (s *Service) SimilarNeighbors(ctx context.Context, sku string) ([]Recommendation, error) {
	start := time.Now()
	recs, err := s.similar(ctx, sku)
	s.observe("similar", start, err, zap.String("sku", sku))
	return recs, err
}

// TextNeighbors is RecommendFromText with distances.
func (s *Service) TextNeighbors(ctx context.Context, text string) ([]Recommendation, error) {
	start := time.Now()
	recs, err := s.text(ctx, text)
	s.observe("text", start, err, zap.Int("query_len", len(text)))
	return recs, err
}

func (s *Service) similar(ctx context.Context, sku string) ([]Recommendation, error) {
	mapping := s.table.Mapping()
	self, ok := mapping.Lookup(sku)
	if !ok {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownProduct, sku, catalog.ErrUnknownIdentifier)
	}
	if err := s.checkWidth(); err != nil {
		return nil, err
	}

	neighbors, err := s.index.Search(ctx, s.table.Vector(self), SearchWidth)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	// Filter by position rather than dropping the head: with duplicate vectors the
	// query item may tie with, or rank behind, other rows at distance zero.
	kept := make([]vector.Neighbor, 0, OutputCount)
	for _, n := range neighbors {
		if n.Position == self {
			continue
		}
		kept = append(kept, n)
		if len(kept) == OutputCount {
			break
		}
	}
	return s.toRecommendations(kept)
}

func (s *Service) text(ctx context.Context, text string) ([]Recommendation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if s.encoder == nil {
		return nil, ErrNoEncoder
	}
	if err := s.checkWidth(); err != nil {
		return nil, err
	}

	query, err := s.encoder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	neighbors, err := s.index.Search(ctx, query, SearchWidth)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(neighbors) > OutputCount {
		neighbors = neighbors[:OutputCount]
	}
	return s.toRecommendations(neighbors)
}

func (s *Service) checkWidth() error {
	if size := s.index.Size(); size < SearchWidth {
		return fmt.Errorf("%w: index holds %d vectors, need at least %d", ErrInsufficientCatalog, size, SearchWidth)
	}
	return nil
}

func (s *Service) toRecommendations(neighbors []vector.Neighbor) ([]Recommendation, error) {
	if len(neighbors) != OutputCount {
		return nil, fmt.Errorf("index returned %d usable neighbors, want %d", len(neighbors), OutputCount)
	}
	mapping := s.table.Mapping()
	out := make([]Recommendation, len(neighbors))
	for i, n := range neighbors {
		sku, err := mapping.SKU(n.Position)
		if err != nil {
			return nil, fmt.Errorf("map neighbor: %w", err)
		}
		out[i] = Recommendation{SKU: sku, Distance: n.Distance}
	}
	return out, nil
}

func (s *Service) observe(operation string, start time.Time, err error, field zap.Field) {
	elapsed := time.Since(start)
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
		s.logger.Debug("recommendation served", zap.String("operation", operation), field, zap.Duration("elapsed", elapsed))
	case IsClientError(err):
		outcome = metrics.OutcomeClientError
		s.logger.Debug("recommendation rejected", zap.String("operation", operation), field, zap.Error(err))
	default:
		outcome = metrics.OutcomeServerError
		if errors.Is(err, vector.ErrDimensionMismatch) {
			s.logger.Error("dimension mismatch between encoder and index",
				zap.String("operation", operation),
				zap.Int("index_dimensions", s.index.Dimensions()),
				zap.Error(err))
		} else {
			s.logger.Error("recommendation failed", zap.String("operation", operation), field, zap.Error(err))
		}
	}
	metrics.RecordRecommendation(operation, outcome, elapsed)
}

// SKUs extracts the SKU column of recs, preserving order.
func SKUs(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.SKU
	}
	return out
}
